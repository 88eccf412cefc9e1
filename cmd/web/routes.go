package main

import (
	"github.com/justinas/alice"
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	dynamic := alice.New(timeout(defaultTimeout))
	// Exports and analyses may wait for the summarization service.
	slow := alice.New(timeout(app.exportTimeout))

	mux.Handle("GET /api/healthy", dynamic.ThenFunc(app.healthy))
	mux.Handle("GET /api/catalog", dynamic.ThenFunc(app.listSteps))
	mux.Handle("GET /api/facets", dynamic.ThenFunc(app.facets))

	mux.Handle("GET /api/cases", dynamic.ThenFunc(app.listCases))
	mux.Handle("POST /api/cases", dynamic.ThenFunc(app.createCase))
	mux.Handle("POST /api/cases/import", dynamic.ThenFunc(app.importLegacy))
	mux.Handle("GET /api/cases/{id}", dynamic.ThenFunc(app.getCase))
	mux.Handle("PUT /api/cases/{id}/scope", dynamic.ThenFunc(app.selectScope))
	mux.Handle("PUT /api/cases/{id}/status", dynamic.ThenFunc(app.setStatus))
	mux.Handle("PUT /api/cases/{id}/findings/{stepID}", dynamic.ThenFunc(app.setFinding))
	mux.Handle("PUT /api/cases/{id}/step-data/{stepID}", dynamic.ThenFunc(app.setStepData))
	mux.Handle("POST /api/cases/{id}/files", dynamic.ThenFunc(app.addOrUpdateFile))
	mux.Handle("DELETE /api/cases/{id}/files/{fileID}", dynamic.ThenFunc(app.removeFile))
	mux.Handle("PUT /api/cases/{id}/packer", dynamic.ThenFunc(app.setPacker))

	mux.Handle("PUT /api/cases/{id}/notes", dynamic.ThenFunc(app.setNotes))
	mux.Handle("POST /api/cases/{id}/tasks", dynamic.ThenFunc(app.addTask))
	mux.Handle("POST /api/cases/{id}/tasks/{taskID}/toggle", dynamic.ThenFunc(app.toggleTask))
	mux.Handle("DELETE /api/cases/{id}/tasks/{taskID}", dynamic.ThenFunc(app.removeTask))
	mux.Handle("POST /api/cases/{id}/iocs", dynamic.ThenFunc(app.addOrUpdateIOC))
	mux.Handle("DELETE /api/cases/{id}/iocs/{iocID}", dynamic.ThenFunc(app.removeIOC))
	mux.Handle("POST /api/cases/{id}/timeline", dynamic.ThenFunc(app.addOrUpdateTimelineEvent))
	mux.Handle("DELETE /api/cases/{id}/timeline/{eventID}", dynamic.ThenFunc(app.removeTimelineEvent))

	mux.Handle("GET /api/cases/{id}/export", slow.ThenFunc(app.export))
	mux.Handle("GET /api/cases/{id}/sections/{section}/export", dynamic.ThenFunc(app.exportSection))
	mux.Handle("POST /api/cases/{id}/analysis", dynamic.ThenFunc(app.startAnalysis))
	mux.Handle("GET /api/cases/{id}/analysis", slow.ThenFunc(app.analysisStatus))

	standard := alice.New(app.recoverPanic, app.identifyRequest, app.logRequest, secureHeaders)
	return standard.Then(mux)
}
