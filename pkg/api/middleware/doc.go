// Package middleware provides the HTTP middleware chain of the fundwatch API.
//
// Order, outermost first:
//
//	RecoveryMiddleware -> RequestIDMiddleware -> ClientIDMiddleware ->
//	LoggingMiddleware -> CORSMiddleware -> TimeoutMiddleware -> routes
//
// Request and client IDs travel in the request context through the
// logging package, so every log line written with a request context
// carries them.
package middleware
