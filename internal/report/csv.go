package report

import (
	"fmt"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/models"
	"slices"
	"strings"
)

// unquoted makes a value safe for an unquoted CSV field.
var unquoted = strings.NewReplacer(",", " ", "\r\n", " ", "\n", " ", "\r", " ")

// quoted wraps a value in quotes, doubling embedded quotes.
func quoted(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func statusLabel(completed bool) string {
	if completed {
		return "Done"
	}
	return "Pending"
}

// encodeCSV flattens the case into Category,Item,Value/Status rows.
func encodeCSV(c *models.Case, steps *catalog.Catalog) []byte {
	var b strings.Builder
	row := func(category, item, value string) {
		fmt.Fprintf(&b, "%s,%s,%s\n", category, item, value)
	}

	b.WriteString("Category,Item,Value/Status\n")
	row("Case Info", "ID", unquoted.Replace(c.CaseID))
	row("Case Info", "Analyst", unquoted.Replace(c.AnalystName))
	row("Case Info", "Status", string(c.Status))

	for _, t := range c.AnalystData.Tasks {
		row("Task", unquoted.Replace(t.Text), statusLabel(t.Completed))
	}
	for _, i := range c.AnalystData.IOCs {
		row("IOC", unquoted.Replace(i.Text), "Detected")
	}
	for _, e := range c.AnalystData.Timeline {
		row("Timeline", unquoted.Replace(e.Date+" "+e.Time), unquoted.Replace(e.Description))
	}

	stepIDs := make([]string, 0, len(c.Findings))
	for id, text := range c.Findings {
		if strings.TrimSpace(text) != "" {
			stepIDs = append(stepIDs, id)
		}
	}
	slices.SortFunc(stepIDs, func(a, b string) int {
		if d := steps.Order(a) - steps.Order(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	for _, id := range stepIDs {
		row("Finding", unquoted.Replace(id), quoted(c.Findings[id]))
	}

	for _, f := range c.StepData.FileHashes().FileList {
		row("Static Analysis", unquoted.Replace(f.FileName), unquoted.Replace(f.Hash))
	}
	return []byte(b.String())
}
