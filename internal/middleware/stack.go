// Package middleware contains HTTP middleware for the credit gate service.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import "net/http"

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided: the first middleware in
// the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(requestID, logging.Handler, metrics.Middleware)
//	mux.Handle("POST /api/credits", stack(creditsHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
