// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Tasks are stored as versioned records: a current-row table keyed by
// entity ID plus an append-only audit table keyed by (entity ID, version).
package store
