package models

import (
	"bytes"
	"encoding/json"
	"github.com/myrjola/dfircase/internal/errors"
	"log/slog"
	"time"
)

// legacyPhaseIDs upgrades phase identifiers written by earlier releases.
var legacyPhaseIDs = map[string]Phase{
	"OS_ARTIFACTS_MERGED": PhaseOSArtifacts,
}

type legacyAnalystData struct {
	Notes           string          `json:"notes"`
	Tasks           json.RawMessage `json:"tasks"`
	IOCs            json.RawMessage `json:"iocs"`
	Timeline        json.RawMessage `json:"timeline"`
	SuspiciousStaff string          `json:"suspiciousStaff"`
}

type legacyCase struct {
	ID             string             `json:"id"`
	CaseID         string             `json:"caseId"`
	AnalystName    string             `json:"analystName"`
	Findings       map[string]string  `json:"findings"`
	StepData       StepData           `json:"stepData"`
	AIReport       *AIReport          `json:"aiReport"`
	CreatedAt      json.RawMessage    `json:"createdAt"`
	Scope          string             `json:"scope"`
	CustomKeywords string             `json:"customKeywords"`
	Status         Status             `json:"status"`
	IncludedPhases []string           `json:"includedPhases"`
	AnalystData    *legacyAnalystData `json:"analystData"`
}

// DecodeLegacyCases normalizes a flat JSON list of case-like objects written by earlier releases.
//
// Missing collections default to empty, a missing id or creation time is generated, and a legacy suspiciousStaff
// text becomes a single indicator of compromise when no indicator list is present.
func DecodeLegacyCases(data []byte, now time.Time) ([]Case, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode legacy case list")
	}
	cases := make([]Case, 0, len(raw))
	for i, item := range raw {
		var legacy legacyCase
		if err := json.Unmarshal(item, &legacy); err != nil {
			return nil, errors.Wrap(err, "decode legacy case", slog.Int("index", i))
		}
		c, err := legacy.normalize(now)
		if err != nil {
			return nil, errors.Wrap(err, "normalize legacy case", slog.Int("index", i))
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func (l legacyCase) normalize(now time.Time) (Case, error) {
	c := NewCase(l.CaseID, l.AnalystName, now)
	if l.ID != "" {
		c.ID = l.ID
	}
	createdAt, err := decodeLegacyTime(l.CreatedAt)
	if err != nil {
		return Case{}, err
	}
	if !createdAt.IsZero() {
		c.CreatedAt = createdAt.UTC().Truncate(time.Millisecond)
	}
	if l.Status.Valid() {
		c.Status = l.Status
	}
	c.Scope = l.Scope
	c.CustomKeywords = l.CustomKeywords
	for _, id := range l.IncludedPhases {
		phase := Phase(id)
		if upgraded, ok := legacyPhaseIDs[id]; ok {
			phase = upgraded
		}
		if phase.Valid() {
			c.IncludedPhases = append(c.IncludedPhases, phase)
		}
	}
	for stepID, finding := range l.Findings {
		c.Findings[stepID] = finding
	}
	for stepID, payload := range l.StepData {
		c.SetStepData(stepID, payload)
	}
	c.AIReport = l.AIReport

	if l.AnalystData == nil {
		return c, nil
	}
	c.AnalystData.Notes = l.AnalystData.Notes
	c.AnalystData.Tasks = decodeArray[TaskItem](l.AnalystData.Tasks)
	for i := range c.AnalystData.Tasks {
		if c.AnalystData.Tasks[i].ID == "" {
			c.AnalystData.Tasks[i].ID = newID()
		}
	}
	c.AnalystData.Timeline = decodeArray[TimelineEvent](l.AnalystData.Timeline)
	for i := range c.AnalystData.Timeline {
		if c.AnalystData.Timeline[i].ID == "" {
			c.AnalystData.Timeline[i].ID = newID()
		}
	}
	SortTimeline(c.AnalystData.Timeline)
	if isArray(l.AnalystData.IOCs) {
		c.AnalystData.IOCs = decodeArray[IOCItem](l.AnalystData.IOCs)
		for i := range c.AnalystData.IOCs {
			if c.AnalystData.IOCs[i].ID == "" {
				c.AnalystData.IOCs[i].ID = newID()
			}
		}
	} else if l.AnalystData.SuspiciousStaff != "" {
		c.AnalystData.IOCs = []IOCItem{{
			ID:    newID(),
			Text:  l.AnalystData.SuspiciousStaff,
			Color: DefaultIOCColor,
		}}
	}
	return c, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeArray returns the decoded elements of raw, or an empty slice when raw is not a well-formed array.
func decodeArray[T any](raw json.RawMessage) []T {
	items := []T{}
	if !isArray(raw) {
		return items
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return []T{}
	}
	return items
}

// decodeLegacyTime accepts epoch milliseconds or an RFC 3339 timestamp. Missing values decode to the zero time.
func decodeLegacyTime(raw json.RawMessage) (time.Time, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return time.Time{}, nil
	}
	if trimmed[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return time.Time{}, errors.Wrap(err, "decode createdAt timestamp")
		}
		return t, nil
	}
	var millis float64
	if err := json.Unmarshal(trimmed, &millis); err != nil {
		return time.Time{}, errors.Wrap(err, "decode createdAt millis")
	}
	if millis == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(int64(millis)), nil
}
