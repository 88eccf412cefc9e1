package main

import (
	"github.com/myrjola/dfircase/internal/caselist"
	"github.com/myrjola/dfircase/internal/casework"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/scope"
	"io"
	"log/slog"
	"net/http"
)

const maxImportBytes = 32 << 20

type caseResponse struct {
	models.Case
	Progress scope.Progress `json:"progress"`
}

func (app *application) listSteps(w http.ResponseWriter, r *http.Request) {
	steps := app.ws.Steps.Steps()
	if phase := r.URL.Query().Get("phase"); phase != "" {
		steps = app.ws.Steps.ForPhase(models.Phase(phase))
	}
	if steps == nil {
		steps = []catalog.Step{}
	}
	app.writeJSON(w, r, http.StatusOK, steps)
}

// listCases serves the dashboard listing. Query parameters: repeated filter=field=value and sort=field[:asc|desc].
func (app *application) listCases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters, ok := caselist.ParseFilters(query["filter"])
	if !ok {
		app.clientError(w, r, http.StatusBadRequest, "invalid filter")
		return
	}
	sort := caselist.DefaultSort()
	if spec := query.Get("sort"); spec != "" {
		if sort, ok = caselist.ParseSort(spec); !ok {
			app.clientError(w, r, http.StatusBadRequest, "invalid sort")
			return
		}
	}

	cases, err := app.ws.Editor.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, caselist.Project(cases, filters, &sort))
}

func (app *application) facets(w http.ResponseWriter, r *http.Request) {
	cases, err := app.ws.Editor.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, caselist.Facets(cases))
}

type createCaseRequest struct {
	CaseID      string `json:"caseId"`
	AnalystName string `json:"analystName"`
}

func (app *application) createCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.NewCase(r.Context(), casework.NewCaseParams{CaseID: req.CaseID, AnalystName: req.AnalystName})
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if c == nil {
		app.clientError(w, r, http.StatusUnprocessableEntity, "caseId and analystName are required")
		return
	}
	app.writeJSON(w, r, http.StatusCreated, c)
}

func (app *application) importLegacy(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	cases, err := app.ws.Editor.ImportLegacy(r.Context(), data)
	if err != nil {
		app.clientError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	app.writeJSON(w, r, http.StatusOK, cases)
}

func (app *application) getCase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := app.ws.Editor.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, errors.Wrap(err, "get case", slog.String("id", id)))
		return
	}
	app.writeJSON(w, r, http.StatusOK, caseResponse{Case: c, Progress: scope.CaseProgress(&c, app.ws.Steps)})
}

type selectScopeRequest struct {
	Profiles       []string `json:"profiles"`
	CustomKeywords string   `json:"customKeywords"`
}

func (app *application) selectScope(w http.ResponseWriter, r *http.Request) {
	var req selectScopeRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.SelectScope(r.Context(), r.PathValue("id"), req.Profiles, req.CustomKeywords)
	app.respondCase(w, r, c, err)
}

type setStatusRequest struct {
	Status models.Status `json:"status"`
}

func (app *application) setStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.SetStatus(r.Context(), r.PathValue("id"), req.Status)
	app.respondCase(w, r, c, err)
}

type textRequest struct {
	Text string `json:"text"`
}

func (app *application) setFinding(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	stepID := r.PathValue("stepID")
	ctx := logging.WithAttrs(r.Context(), slog.String("step_id", stepID))
	c, err := app.ws.Editor.SetFinding(ctx, r.PathValue("id"), stepID, req.Text)
	app.respondCase(w, r, c, err)
}

// setStepData replaces the structured data of a step with the request body.
func (app *application) setStepData(w http.ResponseWriter, r *http.Request) {
	stepID := r.PathValue("stepID")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	payload, err := models.DecodeStepPayload(stepID, data)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ctx := logging.WithAttrs(r.Context(), slog.String("step_id", stepID))
	c, err := app.ws.Editor.SetStepData(ctx, r.PathValue("id"), stepID, payload)
	app.respondCase(w, r, c, err)
}

func (app *application) addOrUpdateFile(w http.ResponseWriter, r *http.Request) {
	var req models.FileHashEntry
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.AddOrUpdateFile(r.Context(), r.PathValue("id"), req)
	app.respondCase(w, r, c, err)
}

func (app *application) removeFile(w http.ResponseWriter, r *http.Request) {
	c, err := app.ws.Editor.RemoveFile(r.Context(), r.PathValue("id"), r.PathValue("fileID"))
	app.respondCase(w, r, c, err)
}

func (app *application) setPacker(w http.ResponseWriter, r *http.Request) {
	var req models.PackerDetection
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.SetPacker(r.Context(), r.PathValue("id"), req.IsPacked, req.PackerName)
	app.respondCase(w, r, c, err)
}
