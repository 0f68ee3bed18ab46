package middleware

import "net/http"

// Chain applies middleware so they run in the order given, outermost first.
//
//	handler := Chain(mux,
//	    RequestID,      // runs first
//	    Recover,
//	    Metrics,
//	    RequestLogging,
//	    CORS(origins),  // runs last, just before the mux
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
