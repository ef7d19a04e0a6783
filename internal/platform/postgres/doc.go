// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package and the job
// ledger defined in the internal/task package. It handles query execution,
// error mapping, and data mapping between domain entities and database rows.
package postgres
