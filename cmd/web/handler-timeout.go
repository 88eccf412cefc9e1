package main

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error":"request timed out"}`

// timeoutHandler responds with a 503 Service Unavailable error when the handler does not meet the deadline.
func timeoutHandler(h http.Handler, handlerTimeout time.Duration) http.Handler {
	// We want the timeout to be a little shorter than the server's timeouts so that the
	// timeout handler has a chance to respond before the server closes the connection.
	httpHandlerTimeout := handlerTimeout - 500*time.Millisecond //nolint:mnd // 500ms
	return http.TimeoutHandler(h, httpHandlerTimeout, timeoutBody)
}
