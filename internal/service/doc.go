// Package service contains the application services that sit between the
// HTTP API and the stores: item lifecycle management, the daily generation
// quota tracker, and the long-poll task delivery gateway.
package service
