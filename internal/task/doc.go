// Package task implements the background job runner that performs
// maintenance-plan generation asynchronously.
//
// The runner owns a worker pool fed by a buffered in-memory queue. Every
// submitted job is also persisted as a job record so the ledger survives
// restarts; recovery re-derives work from the items table, which is the
// single source of truth for "generation still owed". A periodic sweep
// re-submits items stuck in the pending state, covering jobs lost to a
// crash or a full queue.
package task
