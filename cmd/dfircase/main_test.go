package main

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/myrjola/dfircase/cmd/dfircase/cliutil"
	"github.com/myrjola/dfircase/internal/ai"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cli struct {
	env map[string]string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	return cli{env: map[string]string{
		"DFIRCASE_SQLITE_URL": filepath.Join(t.TempDir(), "cases.sqlite"),
	}}
}

// exec runs the command line args with stdin and returns the standard output.
func (c cli) exec(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, func(key string) (string, bool) {
		v, ok := c.env[key]
		return v, ok
	})
	return stdout.String(), err
}

func (c cli) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.exec(t, "", args...)
	require.NoError(t, err, "dfircase %s", strings.Join(args, " "))
	return out
}

func (c cli) listCases(t *testing.T) []models.Case {
	t.Helper()
	var listed []models.Case
	require.NoError(t, json.Unmarshal([]byte(c.mustExec(t, "list", "--json")), &listed))
	return listed
}

func TestCases(t *testing.T) {
	c := newCLI(t)
	id := strings.TrimSpace(c.mustExec(t, "new", "INC-1", "Ann"))
	require.NotEmpty(t, id)

	_, err := c.exec(t, "", "new", "INC-2", " ")
	require.Error(t, err)

	c.mustExec(t, "scope", id, "--profile", "Memory Forensics")
	out := c.mustExec(t, "finding", id, "memory_dump", "-")
	require.Contains(t, out, "saved")
	_, err = c.exec(t, "Found injected code\n", "finding", id, "memory_dump", "-")
	require.NoError(t, err)
	c.mustExec(t, "status", id, "Closed")

	listed := c.listCases(t)
	require.Len(t, listed, 1)
	require.Equal(t, "Memory Forensics", listed[0].Scope)
	require.Equal(t, models.StatusClosed, listed[0].Status)
	require.Equal(t, "Found injected code", listed[0].Findings["memory_dump"])

	raw := c.mustExec(t, "show", id, "--raw")
	require.Contains(t, raw, "### Memory Acquisition\n")
	require.Contains(t, raw, "_Progress: 1/4 steps (25%)_")
	rendered := c.mustExec(t, "show", id, "--style", "notty")
	require.Contains(t, rendered, "Memory Acquisition")

	table := c.mustExec(t, "list", "--filter", "status=Closed", "--sort", "caseId")
	require.Contains(t, table, "INC-1")
	table = c.mustExec(t, "list", "--filter", "status=Open")
	require.NotContains(t, table, "INC-1")
	_, err = c.exec(t, "", "list", "--sort", "nonsense")
	require.Error(t, err)

	var facets map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.mustExec(t, "list", "--facets")), &facets))
	require.Len(t, facets["caseId"], 1)

	_, err = c.exec(t, "", "status", "missing", "Open")
	require.ErrorIs(t, err, cliutil.ErrCaseNotFound)
	_, err = c.exec(t, "", "show", "missing")
	require.ErrorIs(t, err, cliutil.ErrCaseNotFound)
}

func TestNotebook(t *testing.T) {
	c := newCLI(t)
	id := strings.TrimSpace(c.mustExec(t, "new", "INC-1", "Ann"))

	c.mustExec(t, "notes", id, "suspicious login")
	c.mustExec(t, "task", "add", id, "Check logs")
	c.mustExec(t, "ioc", "add", id, "evil.example", "--color", string(models.ColorOrange))
	c.mustExec(t, "timeline", "add", id, "--date", "2024-01-01", "--time", "10:00", "--desc", "Initial access")
	c.mustExec(t, "files", "add", id, "a.exe", "abc")
	c.mustExec(t, "packer", id, "--packed", "--name", "UPX")

	got := c.listCases(t)[0]
	require.Equal(t, "suspicious login", got.AnalystData.Notes)
	require.Len(t, got.AnalystData.Tasks, 1)
	require.Equal(t, models.ColorOrange, got.AnalystData.IOCs[0].Color)
	require.Equal(t, "Initial access", got.AnalystData.Timeline[0].Description)
	require.Equal(t, "a.exe", got.StepData.FileHashes().FileList[0].FileName)
	require.Equal(t, models.PackerDetection{IsPacked: true, PackerName: "UPX"}, got.StepData[models.StepPackers])

	c.mustExec(t, "task", "toggle", id, got.AnalystData.Tasks[0].ID)
	require.True(t, c.listCases(t)[0].AnalystData.Tasks[0].Completed)

	c.mustExec(t, "task", "rm", id, got.AnalystData.Tasks[0].ID)
	c.mustExec(t, "ioc", "rm", id, got.AnalystData.IOCs[0].ID)
	c.mustExec(t, "timeline", "rm", id, got.AnalystData.Timeline[0].ID)
	c.mustExec(t, "files", "rm", id, got.StepData.FileHashes().FileList[0].ID)
	got = c.listCases(t)[0]
	require.Empty(t, got.AnalystData.Tasks)
	require.Empty(t, got.AnalystData.IOCs)
	require.Empty(t, got.AnalystData.Timeline)
	require.Empty(t, got.StepData.FileHashes().FileList)
}

func TestReports(t *testing.T) {
	c := newCLI(t)
	id := strings.TrimSpace(c.mustExec(t, "new", "INC-1", "Ann"))
	c.mustExec(t, "task", "add", id, "Check logs")

	dir := t.TempDir()
	out := c.mustExec(t, "export", id, "--format", "json", "--out", dir)
	path := filepath.Join(dir, "CASE_INC-1_REPORT.json")
	require.Equal(t, path+"\n", out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var exported models.Case
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Equal(t, id, exported.ID)

	section := c.mustExec(t, "export-section", id, "tasks", "--format", "csv", "--out", "-")
	require.Equal(t, "Status,Task\nPending,\"Check logs\"", section)

	_, err = c.exec(t, "", "export", id, "--format", "odt", "--out", dir)
	require.Error(t, err)
	_, err = c.exec(t, "", "export", "missing", "--out", dir)
	require.ErrorIs(t, err, cliutil.ErrCaseNotFound)

	_, err = c.exec(t, "", "analyze", id)
	require.ErrorIs(t, err, ai.ErrNotConfigured)
	_, err = c.exec(t, "", "export", id, "--source", "ai", "--out", dir)
	require.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestImportLegacyAndCatalog(t *testing.T) {
	c := newCLI(t)
	legacy := `[{"id":"legacy-1","caseId":"OLD-1","analystName":"Ann","createdAt":1700000000000,` +
		`"analystData":{"notes":"old","suspiciousStaff":"bob"}}]`
	out, err := c.exec(t, legacy, "import-legacy", "-")
	require.NoError(t, err)
	require.Equal(t, "imported 1 cases\n", out)

	got := c.listCases(t)
	require.Len(t, got, 1)
	require.Equal(t, "bob", got[0].AnalystData.IOCs[0].Text)

	table := c.mustExec(t, "catalog", "--phase", "MEMORY")
	require.Contains(t, table, "memory_dump")
	require.NotContains(t, table, "prefetch")
	require.Equal(t, 5, strings.Count(table, "\n"))
}
