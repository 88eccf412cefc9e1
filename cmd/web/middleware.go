package main

import (
	"fmt"
	"github.com/justinas/alice"
	"github.com/myrjola/dfircase/internal/contexthelpers"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"github.com/myrjola/dfircase/internal/random"
	"log/slog"
	"net/http"
	"time"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API serves JSON and downloads only.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

const requestIDLength = 12

// identifyRequest tags the request and its log records with a random id.
func (app *application) identifyRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, err := random.Letters(requestIDLength)
		if err != nil {
			app.serverError(w, r, errors.Wrap(err, "generate request id"))
			return
		}
		r = contexthelpers.SetRequestID(r, requestID)
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("request_id", requestID)))
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
			start  = time.Now()
		)

		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "received request",
			slog.String("proto", proto), slog.String("method", method), slog.String("uri", uri))

		next.ServeHTTP(w, r)

		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "handled request",
			slog.String("method", method), slog.String("uri", uri), slog.Duration("elapsed", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, errors.New("recovered panic", slog.String("panic", fmt.Sprint(err))))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// timeout bounds the handler duration. Requests missing the deadline get 503 Service Unavailable.
func timeout(d time.Duration) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return timeoutHandler(next, d)
	}
}
