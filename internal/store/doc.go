// Package store defines persistence interfaces and shared helpers used by
// the service and task layers. Implementations live under platform/postgres.
package store
