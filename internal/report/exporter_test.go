package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/dfircase/internal/ai"
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/report"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/sqlite"
	"github.com/myrjola/dfircase/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeSummarizer struct {
	analysis    models.AIReport
	finalReport string
	err         error
	calls       int
}

func (f *fakeSummarizer) Analyze(context.Context, *models.Case) (models.AIReport, error) {
	f.calls++
	return f.analysis, f.err
}

func (f *fakeSummarizer) ComposeFinalReport(context.Context, *models.Case) (string, error) {
	f.calls++
	return f.finalReport, f.err
}

type fixture struct {
	exporter   *report.Exporter
	cases      *repositories.CaseRepository
	summarizer *fakeSummarizer
	record     models.Case
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})
	steps, err := catalog.Load()
	require.NoError(t, err)

	cases := repositories.NewCaseRepository(dbs, logger)
	c := models.NewCase("INC-1", "J. Doe", time.Now())
	c.ApplyScope([]models.Phase{models.PhaseMemory}, "Memory Forensics", "")
	c.SetFinding("memory_dump", "Found injected code in explorer.exe")
	c.SetStepData("ma_strings", models.RawPayload(`{"urls":["http://203.0.113.7/a"]}`))
	c.AddTask("Check logs")
	c.AddOrUpdateIOC("10.0.0.5", models.DefaultIOCColor, "")
	c.AddOrUpdateTimelineEvent("2024-01-01", "10:00", "Initial access", models.DefaultTimelineColor, "")
	require.NoError(t, cases.Create(ctx, &c))

	summarizer := &fakeSummarizer{} //nolint:exhaustruct // configured per test
	return fixture{
		exporter:   report.NewExporter(cases, steps, summarizer, logger),
		cases:      cases,
		summarizer: summarizer,
		record:     c,
	}
}

func TestExporter_ExportStandard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		format          report.Format
		wantFilename    string
		wantContentType string
	}{
		{report.FormatTXT, "CASE_INC-1_REPORT.txt", "text/plain; charset=utf-8"},
		{report.FormatCSV, "CASE_INC-1_REPORT.csv", "text/csv; charset=utf-8"},
		{report.FormatJSON, "CASE_INC-1_REPORT.json", "application/json"},
		{report.FormatDoc, "CASE_INC-1_REPORT.doc", "application/msword"},
		{report.FormatPDF, "CASE_INC-1_REPORT.pdf", "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := f.exporter.Export(ctx, f.record.ID, report.SourceStandard, tt.format)
			require.NoError(t, err)
			require.Equal(t, tt.wantFilename, doc.Filename)
			require.Equal(t, tt.wantContentType, doc.ContentType)
			require.NotEmpty(t, doc.Data)
		})
	}
	require.Zero(t, f.summarizer.calls)
}

func TestExporter_TextMatchesContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.exporter.Export(ctx, f.record.ID, report.SourceStandard, report.FormatTXT)
	require.NoError(t, err)
	content, err := f.exporter.Content(ctx, f.record.ID)
	require.NoError(t, err)
	require.Equal(t, content, string(doc.Data))
	require.Contains(t, content, "## Phase 2: Memory Analysis")
	require.Contains(t, content, "> Found injected code in explorer.exe")
}

func TestExporter_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.exporter.Export(ctx, f.record.ID, report.SourceStandard, report.FormatJSON)
	require.NoError(t, err)
	require.True(t, bytes.Contains(doc.Data, []byte("\n  \"caseId\": \"INC-1\"")), "indented with two spaces")

	var decoded models.Case
	require.NoError(t, json.Unmarshal(doc.Data, &decoded))
	if diff := cmp.Diff(f.record, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExporter_Doc(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.exporter.Export(ctx, f.record.ID, report.SourceStandard, report.FormatDoc)
	require.NoError(t, err)

	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	require.Equal(t, "Report", dom.Find("title").Text())
	xmlns, ok := dom.Find("html").Attr("xmlns:w")
	require.True(t, ok)
	require.Equal(t, "urn:schemas-microsoft-com:office:word", xmlns)
	require.Equal(t, "Forensic Investigation Report", dom.Find("h1").First().Text())

	var h2s []string
	dom.Find("h2").Each(func(_ int, s *goquery.Selection) {
		h2s = append(h2s, s.Text())
	})
	require.Equal(t, []string{"Analyst Overview", "Phase 2: Memory Analysis"}, h2s)
	require.Equal(t, "Memory Acquisition", dom.Find("h3").Last().Text())
	require.Equal(t, "Case ID:", dom.Find("b").First().Text())
	require.Positive(t, dom.Find("br").Length())
	require.Contains(t, dom.Find("div").Text(), "> Found injected code in explorer.exe")
}

func TestExporter_ExportAI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.summarizer.finalReport = "# Forensic Investigation Report: INC-1\n## Executive Summary\n**Critical** compromise"

	doc, err := f.exporter.Export(ctx, f.record.ID, report.SourceAI, report.FormatJSON)
	require.NoError(t, err)
	require.Equal(t, "CASE_INC-1_REPORT_AI.json", doc.Filename)

	var decoded struct {
		CaseID     string            `json:"caseId"`
		Findings   map[string]string `json:"findings"`
		AIAnalysis string            `json:"aiAnalysis"`
	}
	require.NoError(t, json.Unmarshal(doc.Data, &decoded))
	require.Equal(t, "INC-1", decoded.CaseID)
	require.Equal(t, f.record.Findings, decoded.Findings, "findings are kept next to the analysis")
	require.Equal(t, f.summarizer.finalReport, decoded.AIAnalysis)

	stored, err := f.cases.Get(ctx, f.record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AIReport)
	require.Equal(t, f.summarizer.finalReport, stored.AIReport.FinalReport)

	doc, err = f.exporter.Export(ctx, f.record.ID, report.SourceAI, report.FormatTXT)
	require.NoError(t, err)
	require.Equal(t, "CASE_INC-1_REPORT_AI.txt", doc.Filename)
	require.Equal(t, f.summarizer.finalReport, string(doc.Data))

	doc, err = f.exporter.Export(ctx, f.record.ID, report.SourceAI, report.FormatDoc)
	require.NoError(t, err)
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	require.Equal(t, "Executive Summary", dom.Find("h2").Text())
	require.Equal(t, "Critical", dom.Find("b").Text())
}

func TestExporter_ExportAIFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.summarizer.err = errors.Wrap(ai.ErrUnavailable, "test")

	doc, err := f.exporter.Export(ctx, f.record.ID, report.SourceAI, report.FormatPDF)
	require.ErrorIs(t, err, ai.ErrUnavailable)
	require.Empty(t, doc.Data)

	stored, err := f.cases.Get(ctx, f.record.ID)
	require.NoError(t, err)
	require.Nil(t, stored.AIReport)
}

func TestExporter_Analyze(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.summarizer.finalReport = "old report"
	_, err := f.exporter.Export(ctx, f.record.ID, report.SourceAI, report.FormatTXT)
	require.NoError(t, err)

	f.summarizer.analysis = models.AIReport{
		Summary:         "Injected code",
		ThreatLevel:     "High",
		KeyIndicators:   []string{"10.0.0.5"},
		GapAnalysis:     []string{},
		Recommendations: []string{"Isolate host"},
		FinalReport:     "",
	}
	analysis, err := f.exporter.Analyze(ctx, f.record.ID)
	require.NoError(t, err)
	require.Equal(t, f.summarizer.analysis, analysis)

	stored, err := f.cases.Get(ctx, f.record.ID)
	require.NoError(t, err)
	require.Equal(t, &f.summarizer.analysis, stored.AIReport, "new analysis replaces the cached report")
}

func TestExporter_MissingCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.exporter.Export(ctx, "missing", report.SourceAI, report.FormatTXT)
	require.ErrorIs(t, err, repositories.ErrNotFound)
	require.Zero(t, f.summarizer.calls)

	_, err = f.exporter.Analyze(ctx, "missing")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestExporter_ExportSection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.exporter.ExportSection(ctx, f.record.ID, report.SectionTasks, report.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "Analyst_Tasks_Checklist.csv", doc.Filename)
	require.Equal(t, "Status,Task\nPending,\"Check logs\"", string(doc.Data))

	doc, err = f.exporter.ExportSection(ctx, f.record.ID, report.SectionIOCs, report.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "IOC,Color\n\"10.0.0.5\",bg-red-500", string(doc.Data))

	doc, err = f.exporter.ExportSection(ctx, f.record.ID, report.SectionTimeline, report.FormatTXT)
	require.NoError(t, err)
	require.Equal(t, "Analyst_Timeline.txt", doc.Filename)
	require.True(t, strings.HasPrefix(string(doc.Data), "TIMELINE\nExported: "))
	require.True(t, strings.HasSuffix(string(doc.Data), "\n\n[2024-01-01 10:00] Initial access"))

	doc, err = f.exporter.ExportSection(ctx, f.record.ID, report.SectionNotes, report.FormatTXT)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(doc.Data), "No notes recorded."))

	doc, err = f.exporter.ExportSection(ctx, f.record.ID, report.SectionNotes, report.FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "Analyst_Analyst_Notes.pdf", doc.Filename)
	require.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))

	_, err = f.exporter.ExportSection(ctx, f.record.ID, report.SectionNotes, report.FormatJSON)
	require.ErrorIs(t, err, report.ErrUnknownFormat)

	_, err = f.exporter.ExportSection(ctx, f.record.ID, "findings", report.FormatCSV)
	require.ErrorIs(t, err, report.ErrUnknownSection)
}

func TestParseFormatAndSource(t *testing.T) {
	format, err := report.ParseFormat("DOCX")
	require.NoError(t, err)
	require.Equal(t, report.FormatDoc, format)
	_, err = report.ParseFormat("xlsx")
	require.ErrorIs(t, err, report.ErrUnknownFormat)

	source, err := report.ParseSource("")
	require.NoError(t, err)
	require.Equal(t, report.SourceStandard, source)
	_, err = report.ParseSource("gemini")
	require.ErrorIs(t, err, report.ErrUnknownSource)
}
