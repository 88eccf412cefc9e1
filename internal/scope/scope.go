// Package scope derives which phases and catalog steps an investigation covers.
//
// Scoping happens in two stages. Investigation profiles select whole phases once, at scope selection time. Custom
// keywords then narrow the steps of every included phase whenever the step list is needed.
package scope

import (
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/models"
	"slices"
	"strings"
)

// Profile is an investigation profile an analyst can select.
type Profile string

const (
	ProfileFullForensics   Profile = "Full Forensics"
	ProfileOSArtifacts     Profile = "OS & Artifacts"
	ProfileMemoryForensics Profile = "Memory Forensics"
	ProfileMalwareAnalysis Profile = "Malware Analysis"
	ProfileCustom          Profile = "Custom"
)

// Profiles lists the recognized profiles in display order.
var Profiles = []Profile{
	ProfileFullForensics,
	ProfileOSArtifacts,
	ProfileMemoryForensics,
	ProfileMalwareAnalysis,
	ProfileCustom,
}

var profilePhases = map[Profile][]models.Phase{
	ProfileFullForensics:   models.CanonicalPhases,
	ProfileOSArtifacts:     {models.PhaseOSArtifacts},
	ProfileMemoryForensics: {models.PhaseMemory},
	ProfileMalwareAnalysis: {models.PhaseMalwareStatic, models.PhaseMalwareDynamic, models.PhaseMalwareReversing},
	// Custom narrows at the step level, so it needs every phase.
	ProfileCustom: models.CanonicalPhases,
}

// Recognized returns the selected profiles that are known, deduplicated, in selection order.
func Recognized(selected []string) []Profile {
	var profiles []Profile
	for _, name := range selected {
		p := Profile(name)
		if _, ok := profilePhases[p]; ok && !slices.Contains(profiles, p) {
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// Resolve maps selected profile names and optional custom keywords to the included phases in canonical order and a
// human-readable scope label. Unrecognized profile names are ignored.
func Resolve(selected []string, customKeywords string) ([]models.Phase, string) {
	profiles := Recognized(selected)

	included := map[models.Phase]bool{}
	for _, p := range profiles {
		for _, phase := range profilePhases[p] {
			included[phase] = true
		}
	}
	phases := []models.Phase{}
	for _, phase := range models.CanonicalPhases {
		if included[phase] {
			phases = append(phases, phase)
		}
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p != ProfileCustom {
			names = append(names, string(p))
		}
	}
	label := strings.Join(names, " + ")
	if customKeywords != "" {
		if label != "" {
			label += " (+ Custom: " + customKeywords + ")"
		} else {
			label = "Custom: " + customKeywords
		}
	}
	return phases, label
}

// Keywords splits a comma separated keyword string into lower-cased, trimmed, non-empty tokens. A blank token
// would match every step, so "mem, " narrows to "mem" alone.
func Keywords(customKeywords string) []string {
	var keywords []string
	for _, k := range strings.Split(strings.ToLower(customKeywords), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// Matches reports whether any keyword is a substring of the step's title, tool, or id.
func Matches(step catalog.Step, keywords []string) bool {
	title := strings.ToLower(step.Title)
	tool := strings.ToLower(step.Tool)
	for _, k := range keywords {
		if strings.Contains(title, k) || strings.Contains(tool, k) || strings.Contains(step.ID, k) {
			return true
		}
	}
	return false
}

// StepsForPhase returns the catalog steps of phase that are in scope for c.
func StepsForPhase(c *models.Case, steps *catalog.Catalog, phase models.Phase) []catalog.Step {
	phaseSteps := steps.ForPhase(phase)
	if !c.HasCustomScope() {
		return phaseSteps
	}
	keywords := Keywords(c.CustomKeywords)
	if len(keywords) == 0 {
		return phaseSteps
	}
	var filtered []catalog.Step
	for _, step := range phaseSteps {
		if Matches(step, keywords) {
			filtered = append(filtered, step)
		}
	}
	return filtered
}

// Progress counts the in-scope steps of a case and how many of them have a non-blank finding.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns the rounded completion percentage.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Completed*100 + p.Total/2) / p.Total //nolint:mnd // percentage
}

// CaseProgress computes the progress of c over its included phases.
func CaseProgress(c *models.Case, steps *catalog.Catalog) Progress {
	var progress Progress
	for _, phase := range c.IncludedPhases {
		for _, step := range StepsForPhase(c, steps, phase) {
			progress.Total++
			if strings.TrimSpace(c.Findings[step.ID]) != "" {
				progress.Completed++
			}
		}
	}
	return progress
}
