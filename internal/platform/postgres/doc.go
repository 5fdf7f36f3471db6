// Package postgres provides the PostgreSQL implementation of the task store
// defined in internal/store, together with the goose migrations that create
// its schema. It handles query execution, error mapping from pgx error codes
// to store sentinels, and mapping between domain tasks and database rows.
package postgres
