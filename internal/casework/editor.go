// Package casework applies analyst edits to persisted cases.
//
// Every effective edit is one read-modify-write of the whole case document. Edits that are rejected by validation
// or that target an unknown case, task, indicator, or timeline event leave the store untouched and return no error.
// Methods return nil when the case does not exist and the current case otherwise.
package casework

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/scope"
	"log/slog"
	"strings"
	"time"
)

type Editor struct {
	cases    *repositories.CaseRepository
	steps    *catalog.Catalog
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewEditor(cases *repositories.CaseRepository, steps *catalog.Catalog, logger *slog.Logger) *Editor {
	return &Editor{
		cases:    cases,
		steps:    steps,
		logger:   logger.With("source", "casework.Editor"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// NewCaseParams are the inputs of case creation.
type NewCaseParams struct {
	CaseID      string `validate:"required,max=200"`
	AnalystName string `validate:"required,max=200"`
}

// NewCase creates and stores an open case with a blank scope. Blank parameters are rejected with a nil case.
func (e *Editor) NewCase(ctx context.Context, params NewCaseParams) (*models.Case, error) {
	params.CaseID = strings.TrimSpace(params.CaseID)
	params.AnalystName = strings.TrimSpace(params.AnalystName)
	if err := e.validate.Struct(params); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelDebug, "rejected new case", slog.String("reason", err.Error()))
		return nil, nil //nolint:nilnil // validation rejections are silent
	}
	c := models.NewCase(params.CaseID, params.AnalystName, e.now())
	if err := e.cases.Create(ctx, &c); err != nil {
		return nil, errors.Wrap(err, "create case", slog.String("case_id", params.CaseID))
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "case created",
		slog.String("id", c.ID), slog.String("case_id", c.CaseID))
	return &c, nil
}

// Get returns the stored case or an error wrapping [repositories.ErrNotFound].
func (e *Editor) Get(ctx context.Context, id string) (models.Case, error) {
	c, err := e.cases.Get(ctx, id)
	if err != nil {
		return models.Case{}, errors.Wrap(err, "get case")
	}
	return c, nil
}

// List returns every stored case, newest first.
func (e *Editor) List(ctx context.Context) ([]models.Case, error) {
	cases, err := e.cases.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	return cases, nil
}

// mutate runs fn against the stored case. A missing case is logged and yields nil.
func (e *Editor) mutate(ctx context.Context, id, operation string, fn func(c *models.Case) bool) (*models.Case, error) {
	ctx = logging.WithAttrs(ctx, slog.String("id", id), slog.String("operation", operation))
	c, written, err := e.cases.Mutate(ctx, id, fn)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			e.logger.LogAttrs(ctx, slog.LevelDebug, "case not found")
			return nil, nil //nolint:nilnil // lookup misses are silent
		}
		return nil, errors.Wrap(err, operation, slog.String("id", id))
	}
	if !written {
		e.logger.LogAttrs(ctx, slog.LevelDebug, "case unchanged")
	}
	return &c, nil
}

// SelectScope derives the included phases and label from the chosen profiles and stores them. A selection with
// no recognized profile is rejected.
func (e *Editor) SelectScope(ctx context.Context, id string, profiles []string, customKeywords string) (*models.Case, error) {
	return e.mutate(ctx, id, "select scope", func(c *models.Case) bool {
		if len(scope.Recognized(profiles)) == 0 {
			return false
		}
		phases, label := scope.Resolve(profiles, customKeywords)
		c.ApplyScope(phases, label, customKeywords)
		return true
	})
}

func (e *Editor) SetStatus(ctx context.Context, id string, status models.Status) (*models.Case, error) {
	return e.mutate(ctx, id, "set status", func(c *models.Case) bool {
		return c.SetStatus(status)
	})
}

// SetFinding stores text verbatim as the finding of a catalog step.
func (e *Editor) SetFinding(ctx context.Context, id, stepID, text string) (*models.Case, error) {
	return e.mutate(ctx, id, "set finding", func(c *models.Case) bool {
		if !e.steps.Contains(stepID) {
			return false
		}
		return c.SetFinding(stepID, text)
	})
}

// SetStepData replaces the structured payload of a catalog step wholesale.
func (e *Editor) SetStepData(ctx context.Context, id, stepID string, payload models.StepPayload) (*models.Case, error) {
	return e.mutate(ctx, id, "set step data", func(c *models.Case) bool {
		if !e.steps.Contains(stepID) {
			return false
		}
		return c.SetStepData(stepID, payload)
	})
}

// AddOrUpdateFile upserts an entry of the general inspection file/hash list. Both name and hash are required.
// An entry with an unknown id is appended with a fresh id.
func (e *Editor) AddOrUpdateFile(ctx context.Context, id string, entry models.FileHashEntry) (*models.Case, error) {
	return e.mutate(ctx, id, "add or update file", func(c *models.Case) bool {
		if strings.TrimSpace(entry.FileName) == "" || strings.TrimSpace(entry.Hash) == "" {
			return false
		}
		return c.SetStepData(models.StepGeneralInspection, c.StepData.FileHashes().Upsert(entry))
	})
}

func (e *Editor) RemoveFile(ctx context.Context, id, fileID string) (*models.Case, error) {
	return e.mutate(ctx, id, "remove file", func(c *models.Case) bool {
		files, removed := c.StepData.FileHashes().Remove(fileID)
		if !removed {
			return false
		}
		return c.SetStepData(models.StepGeneralInspection, files)
	})
}

// SetPacker records the packer detection result. The packer name is dropped when the sample is not packed.
func (e *Editor) SetPacker(ctx context.Context, id string, isPacked bool, packerName string) (*models.Case, error) {
	return e.mutate(ctx, id, "set packer", func(c *models.Case) bool {
		if !isPacked {
			packerName = ""
		}
		return c.SetStepData(models.StepPackers, models.PackerDetection{IsPacked: isPacked, PackerName: packerName})
	})
}

func (e *Editor) SetNotes(ctx context.Context, id, text string) (*models.Case, error) {
	return e.mutate(ctx, id, "set notes", func(c *models.Case) bool {
		return c.SetNotes(text)
	})
}

func (e *Editor) AddTask(ctx context.Context, id, text string) (*models.Case, error) {
	return e.mutate(ctx, id, "add task", func(c *models.Case) bool {
		_, ok := c.AddTask(text)
		return ok
	})
}

func (e *Editor) ToggleTask(ctx context.Context, id, taskID string) (*models.Case, error) {
	return e.mutate(ctx, id, "toggle task", func(c *models.Case) bool {
		return c.ToggleTask(taskID)
	})
}

func (e *Editor) RemoveTask(ctx context.Context, id, taskID string) (*models.Case, error) {
	return e.mutate(ctx, id, "remove task", func(c *models.Case) bool {
		return c.RemoveTask(taskID)
	})
}

// AddOrUpdateIOC edits the indicator with editingID in place or appends a new one when editingID is empty.
func (e *Editor) AddOrUpdateIOC(
	ctx context.Context,
	id, text string,
	color models.ColorTag,
	editingID string,
) (*models.Case, error) {
	return e.mutate(ctx, id, "add or update ioc", func(c *models.Case) bool {
		_, ok := c.AddOrUpdateIOC(text, color, editingID)
		return ok
	})
}

func (e *Editor) RemoveIOC(ctx context.Context, id, iocID string) (*models.Case, error) {
	return e.mutate(ctx, id, "remove ioc", func(c *models.Case) bool {
		return c.RemoveIOC(iocID)
	})
}

// TimelineEventParams are the inputs of a manual timeline entry.
type TimelineEventParams struct {
	Date        string
	Time        string
	Description string
	Color       models.ColorTag
	// EditingID selects the event to update. Empty appends a new event.
	EditingID string
}

func (e *Editor) AddOrUpdateTimelineEvent(ctx context.Context, id string, params TimelineEventParams) (*models.Case, error) {
	return e.mutate(ctx, id, "add or update timeline event", func(c *models.Case) bool {
		_, ok := c.AddOrUpdateTimelineEvent(params.Date, params.Time, params.Description, params.Color, params.EditingID)
		return ok
	})
}

func (e *Editor) RemoveTimelineEvent(ctx context.Context, id, eventID string) (*models.Case, error) {
	return e.mutate(ctx, id, "remove timeline event", func(c *models.Case) bool {
		return c.RemoveTimelineEvent(eventID)
	})
}

// ImportLegacy normalizes a legacy JSON case list and stores every case in one transaction. Cases with an id that
// already exists are overwritten, except for their creation time.
func (e *Editor) ImportLegacy(ctx context.Context, data []byte) ([]models.Case, error) {
	cases, err := models.DecodeLegacyCases(data, e.now())
	if err != nil {
		return nil, errors.Wrap(err, "decode legacy cases")
	}
	for i := range cases {
		e.dropUnknownSteps(&cases[i])
	}
	if err = e.cases.PutAll(ctx, cases); err != nil {
		return nil, errors.Wrap(err, "store legacy cases", slog.Int("count", len(cases)))
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "legacy cases imported", slog.Int("count", len(cases)))
	return cases, nil
}

// dropUnknownSteps removes findings and step data keyed by ids missing from the catalog.
func (e *Editor) dropUnknownSteps(c *models.Case) {
	for stepID := range c.Findings {
		if !e.steps.Contains(stepID) {
			delete(c.Findings, stepID)
		}
	}
	for stepID := range c.StepData {
		if !e.steps.Contains(stepID) {
			delete(c.StepData, stepID)
		}
	}
}
