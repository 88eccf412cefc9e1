package main

import (
	"github.com/myrjola/dfircase/internal/casework"
	"github.com/myrjola/dfircase/internal/models"
	"net/http"
)

func (app *application) setNotes(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.SetNotes(r.Context(), r.PathValue("id"), req.Text)
	app.respondCase(w, r, c, err)
}

func (app *application) addTask(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.AddTask(r.Context(), r.PathValue("id"), req.Text)
	app.respondCase(w, r, c, err)
}

func (app *application) toggleTask(w http.ResponseWriter, r *http.Request) {
	c, err := app.ws.Editor.ToggleTask(r.Context(), r.PathValue("id"), r.PathValue("taskID"))
	app.respondCase(w, r, c, err)
}

func (app *application) removeTask(w http.ResponseWriter, r *http.Request) {
	c, err := app.ws.Editor.RemoveTask(r.Context(), r.PathValue("id"), r.PathValue("taskID"))
	app.respondCase(w, r, c, err)
}

type iocRequest struct {
	Text      string          `json:"text"`
	Color     models.ColorTag `json:"color"`
	EditingID string          `json:"editingId"`
}

func (app *application) addOrUpdateIOC(w http.ResponseWriter, r *http.Request) {
	var req iocRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.AddOrUpdateIOC(r.Context(), r.PathValue("id"), req.Text, req.Color, req.EditingID)
	app.respondCase(w, r, c, err)
}

func (app *application) removeIOC(w http.ResponseWriter, r *http.Request) {
	c, err := app.ws.Editor.RemoveIOC(r.Context(), r.PathValue("id"), r.PathValue("iocID"))
	app.respondCase(w, r, c, err)
}

type timelineEventRequest struct {
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Description string          `json:"description"`
	Color       models.ColorTag `json:"color"`
	EditingID   string          `json:"editingId"`
}

func (app *application) addOrUpdateTimelineEvent(w http.ResponseWriter, r *http.Request) {
	var req timelineEventRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	c, err := app.ws.Editor.AddOrUpdateTimelineEvent(r.Context(), r.PathValue("id"), casework.TimelineEventParams{
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
		Color:       req.Color,
		EditingID:   req.EditingID,
	})
	app.respondCase(w, r, c, err)
}

func (app *application) removeTimelineEvent(w http.ResponseWriter, r *http.Request) {
	c, err := app.ws.Editor.RemoveTimelineEvent(r.Context(), r.PathValue("id"), r.PathValue("eventID"))
	app.respondCase(w, r, c, err)
}
