// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Key components:
//
// 1. TaskService:
//   - Creates, lists, reads, updates, toggles and deletes versioned tasks
//   - Scopes every lookup to the calling user through the store filter
//
// 2. TaskRepositoryAdapter:
//   - Presents any store.TaskStore as a TaskRepository
//   - Uses the store's native title search when it has one
//
// 3. Error Handling:
//   - Store not-found and version-conflict errors become ErrTaskNotFound and ErrTaskConflict
//   - Everything else is wrapped in *TaskServiceError for context
//
// The service layer depends on domain entities and repository interfaces (from store),
// but never on specific infrastructure implementations.
package service
