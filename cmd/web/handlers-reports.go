package main

import (
	"fmt"
	"github.com/myrjola/dfircase/internal/ai"
	"github.com/myrjola/dfircase/internal/analysis"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/report"
	"github.com/myrjola/dfircase/internal/repositories"
	"log/slog"
	"net/http"
	"strconv"
)

// serveDocument sends doc as a download.
func (app *application) serveDocument(w http.ResponseWriter, doc report.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	_, _ = w.Write(doc.Data)
}

// exportError maps export failures to responses. Summarization failures are reported as 502 Bad Gateway so that
// the analyst can retry.
func (app *application) exportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		app.notFound(w, r)
	case errors.Is(err, report.ErrUnknownFormat), errors.Is(err, report.ErrUnknownSource),
		errors.Is(err, report.ErrUnknownSection):
		app.clientError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrNotConfigured):
		app.clientError(w, r, http.StatusServiceUnavailable, "summarization service not configured")
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrUnparseable):
		app.logger.LogAttrs(r.Context(), slog.LevelError, "summarization failed", errors.SlogError(err))
		app.writeError(w, r, http.StatusBadGateway, "summarization service failed")
	default:
		app.serverError(w, r, err)
	}
}

// export serves the case report. Query parameters: source=standard|ai and format=txt|csv|json|doc|pdf.
func (app *application) export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	source, err := report.ParseSource(query.Get("source"))
	if err != nil {
		app.exportError(w, r, err)
		return
	}
	format := report.FormatTXT
	if f := query.Get("format"); f != "" {
		if format, err = report.ParseFormat(f); err != nil {
			app.exportError(w, r, err)
			return
		}
	}
	doc, err := app.ws.Exporter.Export(r.Context(), r.PathValue("id"), source, format)
	if err != nil {
		app.exportError(w, r, err)
		return
	}
	app.serveDocument(w, doc)
}

func (app *application) exportSection(w http.ResponseWriter, r *http.Request) {
	section, err := report.ParseSection(r.PathValue("section"))
	if err != nil {
		app.exportError(w, r, err)
		return
	}
	format := report.FormatTXT
	if f := r.URL.Query().Get("format"); f != "" {
		if format, err = report.ParseFormat(f); err != nil {
			app.exportError(w, r, err)
			return
		}
	}
	doc, err := app.ws.Exporter.ExportSection(r.Context(), r.PathValue("id"), section, format)
	if err != nil {
		app.exportError(w, r, err)
		return
	}
	app.serveDocument(w, doc)
}

// startAnalysis responds 202 Accepted once the analysis runs in the background and 409 Conflict while an earlier
// analysis of the case is pending.
func (app *application) startAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := app.ws.StartAnalysis(r.Context(), id)
	switch {
	case err == nil:
		app.writeJSON(w, r, http.StatusAccepted, app.ws.Analyses.Status(id))
	case errors.Is(err, repositories.ErrNotFound):
		app.notFound(w, r)
	case errors.Is(err, analysis.ErrInProgress):
		app.clientError(w, r, http.StatusConflict, "analysis already in progress")
	default:
		app.serverError(w, r, err)
	}
}

// analysisStatus reports the latest analysis outcome. With wait=true it blocks until a pending analysis finishes.
func (app *application) analysisStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := app.ws.Cases.Get(r.Context(), id); err != nil {
		app.exportError(w, r, err)
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		app.writeJSON(w, r, http.StatusOK, app.ws.Analyses.Status(id))
		return
	}
	status, err := app.ws.Analyses.Wait(r.Context(), id)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, status)
}
