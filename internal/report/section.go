package report

import (
	"fmt"
	"github.com/go-pdf/fpdf"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"log/slog"
	"strings"
	"time"
)

// Section names one part of the analyst notebook.
type Section string

const (
	SectionNotes    Section = "notes"
	SectionTasks    Section = "tasks"
	SectionIOCs     Section = "iocs"
	SectionTimeline Section = "timeline"
)

// ErrUnknownSection is returned for section names outside the notebook.
var ErrUnknownSection = errors.NewSentinel("unknown notebook section")

// Title is the display title of the section.
func (s Section) Title() string {
	switch s {
	case SectionNotes:
		return "Analyst Notes"
	case SectionTasks:
		return "Tasks Checklist"
	case SectionIOCs:
		return "Indicators of Compromise"
	case SectionTimeline:
		return "Timeline"
	}
	return string(s)
}

func ParseSection(name string) (Section, error) {
	switch s := Section(strings.ToLower(strings.TrimSpace(name))); s {
	case SectionNotes, SectionTasks, SectionIOCs, SectionTimeline:
		return s, nil
	}
	return "", errors.Wrap(ErrUnknownSection, "parse section", slog.String("section", name))
}

func sectionFilename(s Section, format Format) string {
	return "Analyst_" + strings.Join(strings.Fields(s.Title()), "_") + "." + format.extension()
}

func sectionCSV(s Section, data *models.AnalystData) []byte {
	var rows []string
	switch s {
	case SectionNotes:
		rows = []string{"Category,Content", "Notes," + quoted(data.Notes)}
	case SectionTasks:
		rows = append(rows, "Status,Task")
		for _, t := range data.Tasks {
			rows = append(rows, statusLabel(t.Completed)+","+quoted(t.Text))
		}
	case SectionIOCs:
		rows = append(rows, "IOC,Color")
		for _, i := range data.IOCs {
			rows = append(rows, quoted(i.Text)+","+string(i.Color))
		}
	case SectionTimeline:
		rows = append(rows, "Date,Time,Description")
		for _, e := range data.Timeline {
			rows = append(rows, unquoted.Replace(e.Date)+","+unquoted.Replace(e.Time)+","+quoted(e.Description))
		}
	}
	return []byte(strings.Join(rows, "\n"))
}

// sectionLines renders the section body as plain text lines.
func sectionLines(s Section, data *models.AnalystData) []string {
	var lines []string
	switch s {
	case SectionNotes:
		notes := data.Notes
		if notes == "" {
			notes = "No notes recorded."
		}
		lines = strings.Split(notes, "\n")
	case SectionTasks:
		for _, t := range data.Tasks {
			lines = append(lines, fmt.Sprintf("[%s] %s", checkmark(t.Completed), t.Text))
		}
	case SectionIOCs:
		for _, i := range data.IOCs {
			lines = append(lines, "- "+i.Text)
		}
	case SectionTimeline:
		for _, e := range data.Timeline {
			lines = append(lines, fmt.Sprintf("[%s %s] %s", e.Date, e.Time, e.Description))
		}
	}
	return lines
}

func sectionText(s Section, data *models.AnalystData, exported time.Time) []byte {
	header := fmt.Sprintf("%s\nExported: %s\n\n", strings.ToUpper(s.Title()), exported.Format(time.DateTime))
	return []byte(header + strings.Join(sectionLines(s, data), "\n"))
}

func emptySectionMessage(s Section) string {
	switch s {
	case SectionTasks:
		return "No tasks recorded."
	case SectionIOCs:
		return "No IOCs recorded."
	case SectionTimeline:
		return "No events recorded."
	case SectionNotes:
	}
	return "No notes recorded."
}

const (
	sectionTop        = 20.0
	sectionPageBottom = 277.0
)

// layoutSectionPDF renders a titled page with the section entries below a divider.
func layoutSectionPDF(s Section, data *models.AnalystData, exported time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	y := sectionTop
	pdf.SetFont("Helvetica", "B", 18) //nolint:mnd // title size
	pdf.Text(pdfMarginLeft, y, tr(latin1(s.Title())))
	pdf.SetFont("Helvetica", "", 10) //nolint:mnd // body size
	pdf.Text(pdfMarginLeft, y+6, "Exported: "+exported.Format(time.DateTime))
	y += 15
	pdf.SetDrawColor(200, 200, 200) //nolint:mnd // light grey
	pdf.Line(pdfMarginLeft, y, 200, y)
	y += 10

	pdf.SetFont("Helvetica", "", 12) //nolint:mnd // entry size
	step := 8.0
	lines := sectionLines(s, data)
	if s == SectionNotes {
		step = 7.0
		lines = pdf.SplitText(latin1(strings.Join(lines, "\n")), pdfLineWidth)
	}
	if len(lines) == 0 {
		pdf.Text(pdfMarginLeft, y, emptySectionMessage(s))
	}
	for _, line := range lines {
		if y > sectionPageBottom {
			pdf.AddPage()
			y = sectionTop
		}
		pdf.Text(pdfMarginLeft, y, tr(latin1(line)))
		y += step
	}
	return pdf
}
