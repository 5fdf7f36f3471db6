// Package sqlite provides a gorm-backed SQLite implementation of the task
// store defined in internal/store. It is used for local development and for
// tests that need a real database without a PostgreSQL server.
package sqlite
