// Package report renders cases into downloadable documents.
//
// The standard source assembles canonical report text from the case. The AI source asks the summarization service
// for a complete report instead and caches it on the case before encoding. Both sources share the same encoders.
package report

import (
	"context"
	"encoding/json"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/repositories"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrUnknownFormat = errors.NewSentinel("unknown export format")
	ErrUnknownSource = errors.NewSentinel("unknown export source")
)

type Format string

const (
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatDoc  Format = "doc"
	FormatPDF  Format = "pdf"
)

// ParseFormat recognizes format names case-insensitively. "docx" is accepted for the word processor document.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTXT, FormatCSV, FormatJSON, FormatDoc, FormatPDF:
		return f, nil
	case "docx":
		return FormatDoc, nil
	}
	return "", errors.Wrap(ErrUnknownFormat, "parse format", slog.String("format", name))
}

func (f Format) extension() string {
	return string(f)
}

// ContentType is the media type of documents in format f.
func (f Format) ContentType() string {
	switch f {
	case FormatTXT:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatDoc:
		return "application/msword"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

type Source string

const (
	SourceStandard Source = "standard"
	SourceAI       Source = "ai"
)

func ParseSource(name string) (Source, error) {
	switch s := Source(strings.ToLower(strings.TrimSpace(name))); s {
	case SourceStandard, SourceAI:
		return s, nil
	case "":
		return SourceStandard, nil
	}
	return "", errors.Wrap(ErrUnknownSource, "parse source", slog.String("source", name))
}

// Summarizer is the external text generation service.
type Summarizer interface {
	Analyze(ctx context.Context, record *models.Case) (models.AIReport, error)
	ComposeFinalReport(ctx context.Context, record *models.Case) (string, error)
}

// Document is an encoded export ready to be saved or served.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Exporter struct {
	cases      *repositories.CaseRepository
	steps      *catalog.Catalog
	summarizer Summarizer
	logger     *slog.Logger
	now        func() time.Time
}

func NewExporter(
	cases *repositories.CaseRepository,
	steps *catalog.Catalog,
	summarizer Summarizer,
	logger *slog.Logger,
) *Exporter {
	return &Exporter{
		cases:      cases,
		steps:      steps,
		summarizer: summarizer,
		logger:     logger.With("source", "report.Exporter"),
		now:        time.Now,
	}
}

// Content returns the canonical report text of the stored case.
func (e *Exporter) Content(ctx context.Context, id string) (string, error) {
	c, err := e.cases.Get(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "get case")
	}
	return Content(&c, e.steps, e.now()), nil
}

// Export renders the stored case. With the AI source the composed report is cached on the case first; when the
// summarization service fails nothing is cached and no document is produced.
func (e *Exporter) Export(ctx context.Context, id string, source Source, format Format) (Document, error) {
	c, err := e.cases.Get(ctx, id)
	if err != nil {
		return Document{}, errors.Wrap(err, "get case")
	}

	filename := "CASE_" + filenameSafe(c.CaseID) + "_REPORT"
	var content, aiAnalysis string
	switch source {
	case SourceAI:
		start := e.now()
		if aiAnalysis, err = e.summarizer.ComposeFinalReport(ctx, &c); err != nil {
			return Document{}, errors.Wrap(err, "compose final report", slog.String("id", id))
		}
		if c, _, err = e.cases.Mutate(ctx, id, func(c *models.Case) bool {
			c.CacheFinalReport(aiAnalysis)
			return true
		}); err != nil {
			return Document{}, errors.Wrap(err, "cache final report", slog.String("id", id))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "final report composed",
			slog.String("id", id), slog.Duration("elapsed", e.now().Sub(start)))
		content = aiAnalysis
		filename += "_AI"
	case SourceStandard:
		content = Content(&c, e.steps, e.now())
	default:
		return Document{}, errors.Wrap(ErrUnknownSource, "export", slog.String("source", string(source)))
	}

	var data []byte
	switch format {
	case FormatTXT:
		data = []byte(content)
	case FormatCSV:
		data = encodeCSV(&c, e.steps)
	case FormatJSON:
		data, err = encodeJSON(&c, source, aiAnalysis)
	case FormatDoc:
		data, err = encodeDoc(content)
	case FormatPDF:
		data, err = encodePDF(content)
	default:
		return Document{}, errors.Wrap(ErrUnknownFormat, "export", slog.String("format", string(format)))
	}
	if err != nil {
		return Document{}, errors.Wrap(err, "encode export", slog.String("format", string(format)))
	}
	return Document{
		Filename:    filename + "." + format.extension(),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Analyze asks the summarization service for a structured assessment and stores it on the case, replacing any
// earlier analysis and cached final report.
func (e *Exporter) Analyze(ctx context.Context, id string) (models.AIReport, error) {
	c, err := e.cases.Get(ctx, id)
	if err != nil {
		return models.AIReport{}, errors.Wrap(err, "get case")
	}
	analysis, err := e.summarizer.Analyze(ctx, &c)
	if err != nil {
		return models.AIReport{}, errors.Wrap(err, "analyze case", slog.String("id", id))
	}
	if _, _, err = e.cases.Mutate(ctx, id, func(c *models.Case) bool {
		c.SetAIReport(analysis)
		return true
	}); err != nil {
		return models.AIReport{}, errors.Wrap(err, "store analysis", slog.String("id", id))
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "case analyzed",
		slog.String("id", id), slog.String("threat_level", analysis.ThreatLevel))
	return analysis, nil
}

// ExportSection renders one notebook section as csv, txt, or pdf.
func (e *Exporter) ExportSection(ctx context.Context, id string, section Section, format Format) (Document, error) {
	c, err := e.cases.Get(ctx, id)
	if err != nil {
		return Document{}, errors.Wrap(err, "get case")
	}
	if section, err = ParseSection(string(section)); err != nil {
		return Document{}, err
	}

	var data []byte
	switch format {
	case FormatCSV:
		data = sectionCSV(section, &c.AnalystData)
	case FormatTXT:
		data = sectionText(section, &c.AnalystData, e.now())
	case FormatPDF:
		data, err = outputPDF(layoutSectionPDF(section, &c.AnalystData, e.now()))
	case FormatJSON, FormatDoc:
		fallthrough
	default:
		return Document{}, errors.Wrap(ErrUnknownFormat, "section export", slog.String("format", string(format)))
	}
	if err != nil {
		return Document{}, errors.Wrap(err, "encode section", slog.String("section", string(section)))
	}
	return Document{
		Filename:    sectionFilename(section, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

type aiExport struct {
	*models.Case
	AIAnalysis string `json:"aiAnalysis"`
}

func encodeJSON(c *models.Case, source Source, aiAnalysis string) ([]byte, error) {
	var v any = c
	if source == SourceAI {
		v = aiExport{Case: c, AIAnalysis: aiAnalysis}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal case")
	}
	return data, nil
}

// filenameSafe replaces path separators so that the case label cannot escape the target directory.
func filenameSafe(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(s)
}
