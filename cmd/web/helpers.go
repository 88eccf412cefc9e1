package main

import (
	"encoding/json"
	"github.com/myrjola/dfircase/internal/contexthelpers"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/repositories"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// decodeJSON reads the request body into dst. It responds with 400 Bad Request and returns false on failure.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", method), slog.String("uri", uri), slog.String("reason", msg))
	app.writeError(w, r, status, msg)
}

func (app *application) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data, _ := json.Marshal(errorResponse{Error: msg, RequestID: contexthelpers.RequestID(r.Context())})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, "case not found")
}

// respondCase encodes the outcome of a case edit. Edits of missing cases yield no case and respond 404.
func (app *application) respondCase(w http.ResponseWriter, r *http.Request, c *models.Case, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		app.notFound(w, r)
	case err != nil:
		app.serverError(w, r, err)
	case c == nil:
		app.notFound(w, r)
	default:
		app.writeJSON(w, r, http.StatusOK, c)
	}
}
