package ai

import (
	"fmt"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/models"
	"slices"
	"strings"
)

// notebookSections flattens the analyst notebook into prompt fragments.
func notebookSections(data *models.AnalystData) (string, string, string) {
	tasks := "N/A"
	if len(data.Tasks) > 0 {
		lines := make([]string, 0, len(data.Tasks))
		for _, t := range data.Tasks {
			mark := " "
			if t.Completed {
				mark = "X"
			}
			lines = append(lines, fmt.Sprintf("- [%s] %s", mark, t.Text))
		}
		tasks = strings.Join(lines, "\n")
	}

	timeline := "N/A"
	if len(data.Timeline) > 0 {
		events := slices.Clone(data.Timeline)
		models.SortTimeline(events)
		lines := make([]string, 0, len(events))
		for _, e := range events {
			lines = append(lines, fmt.Sprintf("[%s %s] %s", e.Date, e.Time, e.Description))
		}
		timeline = strings.Join(lines, "\n")
	}

	iocs := "N/A"
	if len(data.IOCs) > 0 {
		lines := make([]string, 0, len(data.IOCs))
		for _, i := range data.IOCs {
			lines = append(lines, "- "+i.Text)
		}
		iocs = strings.Join(lines, "\n")
	}
	return tasks, timeline, iocs
}

type finding struct {
	title string
	text  string
}

// findingsInCatalogOrder pairs every non-blank finding with its step title.
func findingsInCatalogOrder(record *models.Case, steps *catalog.Catalog) []finding {
	ids := make([]string, 0, len(record.Findings))
	for id, text := range record.Findings {
		if strings.TrimSpace(text) != "" {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b string) int {
		if d := steps.Order(a) - steps.Order(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	findings := make([]finding, 0, len(ids))
	for _, id := range ids {
		title := id
		if step, ok := steps.Lookup(id); ok {
			title = step.Title
		}
		findings = append(findings, finding{title: title, text: record.Findings[id]})
	}
	return findings
}

func analysisPrompt(record *models.Case, steps *catalog.Catalog) string {
	tasks, timeline, iocs := notebookSections(&record.AnalystData)

	var investigation strings.Builder
	findings := findingsInCatalogOrder(record, steps)
	if len(findings) == 0 {
		investigation.WriteString("No findings recorded yet.")
	}
	for _, f := range findings {
		fmt.Fprintf(&investigation, "---\nSTEP: %s\nFINDING: %s\n---\n", f.title, f.text)
	}

	notes := record.AnalystData.Notes
	if strings.TrimSpace(notes) == "" {
		notes = "N/A"
	}

	return fmt.Sprintf(`Act as a Senior Digital Forensics and Incident Response (DFIR) Expert.
Review the following investigation notes for Case ID: %s, Analyst: %s.

ANALYST NOTES:
%s

TASKS:
%s

MANUAL TIMELINE EVENTS:
%s

INDICATORS OF COMPROMISE (IOCs):
%s

INVESTIGATION DATA:
%s

Based strictly on the provided findings, generate a JSON response with the following structure:
{
  "summary": "A professional executive summary of the incident based on findings.",
  "threatLevel": "Low | Medium | High | Critical",
  "keyIndicators": ["List of potential IOCs found"],
  "gapAnalysis": ["List of forensic steps that appear missing or incomplete based on the standard process"],
  "recommendations": ["Specific next steps to take"]
}

Do not output Markdown formatting for the JSON. Just the raw JSON object.`,
		record.CaseID, record.AnalystName, notes, tasks, timeline, iocs, investigation.String())
}

func finalReportPrompt(record *models.Case, steps *catalog.Catalog) string {
	tasks, timeline, iocs := notebookSections(&record.AnalystData)

	findings := findingsInCatalogOrder(record, steps)
	technical := make([]string, 0, len(findings))
	for _, f := range findings {
		technical = append(technical, fmt.Sprintf("Step: %s\nRaw Findings: %s", f.title, f.text))
	}

	return fmt.Sprintf(`Act as a Forensic Report Editor. You are generating the final report for Case %s.

INPUT DATA:
1. Analyst Notes: %s
2. Tasks Status:
%s
3. IOCs (Indicators of Compromise):
%s
4. Manual Timeline Events:
%s
5. Technical Findings:
%s

INSTRUCTIONS:
1. "Clean" the analysis: Rewrite the findings to be professional, concise, and grammatically correct forensic statements.
2. Auto-generate a Chronological Timeline: Extract ALL timestamps mentioned in the Technical Findings or Analyst Notes AND include the Manual Timeline Events provided above. Merge them into a single chronological sequence.
3. Output a standard Markdown report structure.

FORMAT:
# Forensic Investigation Report: %s
## Executive Summary
(Synthesize findings and notes)

## Investigation Details
### Analyst Notes
(Cleaned version)
### Indicators of Compromise
(Cleaned list)
### Task Completion Status
(Summary of completed vs pending tasks)

## Comprehensive Timeline
| Timestamp | Event | Source |
| --- | --- | --- |
(Extracted events merged with manual events)

## Technical Analysis
(Iterate through findings, cleaned and formatted)

## Conclusion & Recommendations`,
		record.CaseID, record.AnalystData.Notes, tasks, iocs, timeline, strings.Join(technical, "\n\n"), record.CaseID)
}
