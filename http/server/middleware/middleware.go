// Package middleware holds the fiber middlewares of the redq admin server.
//
// Priorities, outermost first:
//
//	1000 recovery     panics become PANIC_RECOVERED responses
//	 900 tracing      server span, continues traceparent of the caller
//	 800 timeout      bounds the request context
//	 700 meta         trace id, client and service identity into the context
//	 600 alerting     alerts on 5xx answers
//	 500 logger       one access log entry per request
//	 400 errors       errx errors to JSON responses
//
// Defaults assembles the whole set.
package middleware
