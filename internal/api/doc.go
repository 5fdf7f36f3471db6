// Package api serves the /task HTTP endpoints. Handlers read the caller's
// user ID placed in the context by middleware.AuthMiddleware, call
// service.TaskService and write {success, ...} JSON envelopes. Internal
// errors are mapped to status codes in errors.go and never echoed.
package api
