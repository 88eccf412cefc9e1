package report

import (
	"fmt"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/scope"
	"strings"
	"time"
)

// Content assembles the canonical Markdown-flavoured report text of c.
//
// Only included phases are rendered. Within a phase, a step qualifies when it is in scope and has a non-blank
// finding or structured data worth summarizing. A phase without qualifying steps renders a placeholder line.
func Content(c *models.Case, steps *catalog.Catalog, generated time.Time) string {
	var b strings.Builder

	b.WriteString("# Forensic Investigation Report\n")
	fmt.Fprintf(&b, "**Case ID:** %s\n", c.CaseID)
	fmt.Fprintf(&b, "**Analyst:** %s\n", c.AnalystName)
	fmt.Fprintf(&b, "**Date:** %s\n", generated.Format(time.DateOnly))
	fmt.Fprintf(&b, "**Scope:** %s\n", c.Scope)
	fmt.Fprintf(&b, "**Status:** %s\n\n", c.Status)

	notes := c.AnalystData.Notes
	if notes == "" {
		notes = "N/A"
	}
	b.WriteString("## Analyst Overview\n")
	fmt.Fprintf(&b, "### Notes\n%s\n\n", notes)
	fmt.Fprintf(&b, "### Tasks\n%s\n\n", taskLines(c.AnalystData.Tasks))
	fmt.Fprintf(&b, "### Indicators of Compromise (IOCs)\n%s\n\n", iocLines(c.AnalystData.IOCs))
	fmt.Fprintf(&b, "### Timeline (Manual)\n%s\n\n", timelineLines(c.AnalystData.Timeline))

	for _, phase := range c.IncludedPhases {
		fmt.Fprintf(&b, "## %s\n\n", phase.Title())
		written := 0
		for _, step := range scope.StepsForPhase(c, steps, phase) {
			if writeStep(&b, c, step) {
				written++
			}
		}
		if written == 0 {
			b.WriteString("_No steps in scope for this phase._\n\n")
		}
	}
	return b.String()
}

// writeStep renders one step subsection and reports whether the step qualified.
func writeStep(b *strings.Builder, c *models.Case, step catalog.Step) bool {
	finding := c.Findings[step.ID]
	hasFinding := strings.TrimSpace(finding) != ""
	extra := ""
	if payload, ok := c.StepData[step.ID]; ok {
		if heading, lines := payload.Summary(); heading != "" {
			extra = "\n**" + heading + ":**\n" + strings.Join(lines, "\n") + "\n"
		}
	}
	if !hasFinding && extra == "" {
		return false
	}

	fmt.Fprintf(b, "### %s\n", step.Title)
	fmt.Fprintf(b, "*Tool used: %s*\n", step.ToolLabel())
	if hasFinding {
		fmt.Fprintf(b, "> %s\n", strings.ReplaceAll(finding, "\n", "\n> "))
	}
	if extra != "" {
		fmt.Fprintf(b, "\n%s\n", extra)
	}
	b.WriteString("\n")
	return true
}

func taskLines(tasks []models.TaskItem) string {
	if len(tasks) == 0 {
		return "N/A"
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, fmt.Sprintf("- [%s] %s", checkmark(t.Completed), t.Text))
	}
	return strings.Join(lines, "\n")
}

func iocLines(iocs []models.IOCItem) string {
	if len(iocs) == 0 {
		return "N/A"
	}
	lines := make([]string, 0, len(iocs))
	for _, i := range iocs {
		lines = append(lines, "- "+i.Text)
	}
	return strings.Join(lines, "\n")
}

func timelineLines(events []models.TimelineEvent) string {
	if len(events) == 0 {
		return "N/A"
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("%s %s - %s", e.Date, e.Time, e.Description))
	}
	return strings.Join(lines, "\n")
}

func checkmark(completed bool) string {
	if completed {
		return "X"
	}
	return " "
}
