// Package domain contains the core business entities, value objects, and
// domain logic of the application. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
//
// The central entity is Task, stored as an append-only chain of revisions:
// every mutation produces a new Version linked to the previous one, and
// deletion writes an inactive revision rather than removing data.
package domain
