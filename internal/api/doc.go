// Package api provides the HTTP handlers for the service: authentication,
// item registration, and task delivery.
package api
