package models

import (
	"github.com/google/uuid"
	"strings"
	"time"
)

// newID generates identifiers for cases and their sub-entries.
var newID = uuid.NewString

// AIReport is the structured analysis produced by the summarization service.
type AIReport struct {
	Summary         string   `json:"summary"`
	ThreatLevel     string   `json:"threatLevel"`
	KeyIndicators   []string `json:"keyIndicators"`
	GapAnalysis     []string `json:"gapAnalysis"`
	Recommendations []string `json:"recommendations"`
	// FinalReport caches the last composed Markdown report.
	FinalReport string `json:"finalReport,omitempty"`
}

// Case is the root aggregate of one forensic investigation.
type Case struct {
	ID             string            `json:"id"`
	CaseID         string            `json:"caseId"`
	AnalystName    string            `json:"analystName"`
	CreatedAt      time.Time         `json:"createdAt"`
	Status         Status            `json:"status"`
	Scope          string            `json:"scope"`
	CustomKeywords string            `json:"customKeywords,omitempty"`
	IncludedPhases []Phase           `json:"includedPhases"`
	Findings       map[string]string `json:"findings"`
	StepData       StepData          `json:"stepData"`
	AIReport       *AIReport         `json:"aiReport"`
	AnalystData    AnalystData       `json:"analystData"`
}

// NewCase creates an open case with empty collections and a blank scope.
func NewCase(caseID, analystName string, now time.Time) Case {
	return Case{
		ID:             newID(),
		CaseID:         caseID,
		AnalystName:    analystName,
		CreatedAt:      now.UTC().Truncate(time.Millisecond),
		Status:         StatusOpen,
		Scope:          "",
		CustomKeywords: "",
		IncludedPhases: []Phase{},
		Findings:       map[string]string{},
		StepData:       StepData{},
		AIReport:       nil,
		AnalystData:    newAnalystData(),
	}
}

// ApplyScope records the outcome of scope selection.
func (c *Case) ApplyScope(phases []Phase, label, customKeywords string) {
	c.IncludedPhases = append([]Phase{}, phases...)
	c.Scope = label
	c.CustomKeywords = customKeywords
}

// HasCustomScope reports whether step level keyword filtering applies.
func (c *Case) HasCustomScope() bool {
	return c.CustomKeywords != "" && strings.Contains(c.Scope, "Custom")
}

// SetStatus changes the lifecycle state. Unknown statuses are rejected.
func (c *Case) SetStatus(status Status) bool {
	if !status.Valid() {
		return false
	}
	c.Status = status
	return true
}

// SetFinding stores text verbatim as the finding of stepID.
func (c *Case) SetFinding(stepID, text string) bool {
	if c.Findings == nil {
		c.Findings = map[string]string{}
	}
	c.Findings[stepID] = text
	return true
}

// SetStepData replaces the structured payload of stepID wholesale. File/hash entries without a unique id get a
// fresh one.
func (c *Case) SetStepData(stepID string, payload StepPayload) bool {
	if payload == nil {
		return false
	}
	if files, ok := payload.(FileHashList); ok {
		payload = files.withIDs()
	}
	if c.StepData == nil {
		c.StepData = StepData{}
	}
	c.StepData[stepID] = payload
	return true
}

// SetAIReport replaces the cached analysis.
func (c *Case) SetAIReport(report AIReport) {
	c.AIReport = &report
}

// CacheFinalReport stores a composed report next to the structured analysis.
func (c *Case) CacheFinalReport(text string) {
	if c.AIReport == nil {
		c.AIReport = &AIReport{ //nolint:exhaustruct // only the final report is known
			KeyIndicators:   []string{},
			GapAnalysis:     []string{},
			Recommendations: []string{},
		}
	}
	c.AIReport.FinalReport = text
}
