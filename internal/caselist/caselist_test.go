package caselist_test

import (
	"github.com/myrjola/dfircase/internal/caselist"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func fixtureCases() []models.Case {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mk := func(caseID, analyst string, status models.Status, scope string, offset time.Duration) models.Case {
		c := models.NewCase(caseID, analyst, base.Add(offset))
		c.Status = status
		c.Scope = scope
		return c
	}
	return []models.Case{
		mk("INC-3", "alice", models.StatusOpen, "Memory Forensics", 2*time.Hour),
		mk("INC-1", "bob", models.StatusClosed, "Full Forensics", 0),
		mk("INC-2", "alice", models.StatusOpen, "Full Forensics", time.Hour),
		mk("INC-4", "carol", models.StatusClosed, "Malware Analysis", 3*time.Hour),
	}
}

func caseIDs(cases []models.Case) []string {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.CaseID)
	}
	return ids
}

func TestProject(t *testing.T) {
	defaultSort := caselist.DefaultSort()
	tests := []struct {
		name    string
		filters caselist.Filters
		sort    *caselist.Sort
		want    []string
	}{
		{
			name: "default sort is newest first",
			sort: &defaultSort,
			want: []string{"INC-4", "INC-3", "INC-2", "INC-1"},
		},
		{
			name:    "open cases newest first",
			filters: caselist.Filters{caselist.FieldStatus: {"Open"}},
			sort:    &defaultSort,
			want:    []string{"INC-3", "INC-2"},
		},
		{
			name: "filters compose with and",
			filters: caselist.Filters{
				caselist.FieldStatus:      {"Open", "Closed"},
				caselist.FieldAnalystName: {"alice"},
				caselist.FieldScope:       {"Full Forensics"},
			},
			want: []string{"INC-2"},
		},
		{
			name:    "no match yields empty",
			filters: caselist.Filters{caselist.FieldCaseID: {"INC-99"}},
			want:    []string{},
		},
		{
			name: "string sort ascending is stable",
			sort: &caselist.Sort{Field: caselist.FieldAnalystName, Direction: caselist.Ascending},
			want: []string{"INC-3", "INC-2", "INC-1", "INC-4"},
		},
		{
			name: "nil sort keeps input order",
			want: []string{"INC-3", "INC-1", "INC-2", "INC-4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases := fixtureCases()
			got := caselist.Project(cases, tt.filters, tt.sort)
			require.Equal(t, tt.want, caseIDs(got))
			require.Equal(t, []string{"INC-3", "INC-1", "INC-2", "INC-4"}, caseIDs(cases), "input untouched")
		})
	}
}

func TestFilters_Toggle(t *testing.T) {
	var filters caselist.Filters
	filters = filters.Toggle(caselist.FieldStatus, "Open")
	filters = filters.Toggle(caselist.FieldStatus, "Closed")
	require.Equal(t, caselist.Filters{caselist.FieldStatus: {"Open", "Closed"}}, filters)

	before := filters
	filters = filters.Toggle(caselist.FieldStatus, "Open")
	require.Equal(t, caselist.Filters{caselist.FieldStatus: {"Closed"}}, filters)
	require.Equal(t, caselist.Filters{caselist.FieldStatus: {"Open", "Closed"}}, before, "receiver untouched")

	filters = filters.Toggle(caselist.FieldStatus, "Closed")
	require.Empty(t, filters, "emptied filter is dropped")

	filters = filters.Toggle(caselist.FieldScope, "Custom").Clear(caselist.FieldScope)
	require.Empty(t, filters)
}

func TestToggleSort(t *testing.T) {
	s := caselist.ToggleSort(nil, caselist.FieldCaseID)
	require.Equal(t, caselist.Sort{Field: caselist.FieldCaseID, Direction: caselist.Ascending}, s)
	s = caselist.ToggleSort(&s, caselist.FieldCaseID)
	require.Equal(t, caselist.Sort{Field: caselist.FieldCaseID, Direction: caselist.Descending}, s)
	s = caselist.ToggleSort(&s, caselist.FieldCaseID)
	require.Equal(t, caselist.Ascending, s.Direction)
	s = caselist.ToggleSort(&s, caselist.FieldStatus)
	require.Equal(t, caselist.Sort{Field: caselist.FieldStatus, Direction: caselist.Ascending}, s)
}

func TestDistinctValues(t *testing.T) {
	cases := fixtureCases()
	require.Equal(t, []caselist.ValueCount{
		{Value: "alice", Count: 2},
		{Value: "bob", Count: 1},
		{Value: "carol", Count: 1},
	}, caselist.DistinctValues(cases, caselist.FieldAnalystName))
	require.Nil(t, caselist.DistinctValues(nil, caselist.FieldStatus))

	facets := caselist.Facets(cases)
	require.Len(t, facets, len(caselist.FilterableFields))
	require.Equal(t, []caselist.ValueCount{
		{Value: "Open", Count: 2},
		{Value: "Closed", Count: 2},
	}, facets[caselist.FieldStatus])
}

func TestParseField(t *testing.T) {
	f, ok := caselist.ParseField("createdAt")
	require.True(t, ok)
	require.Equal(t, caselist.FieldCreatedAt, f)
	_, ok = caselist.ParseField("findings")
	require.False(t, ok)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		spec string
		want caselist.Sort
		ok   bool
	}{
		{spec: "caseId", want: caselist.Sort{Field: caselist.FieldCaseID, Direction: caselist.Ascending}, ok: true},
		{spec: "createdAt:desc", want: caselist.DefaultSort(), ok: true},
		{spec: "status:asc", want: caselist.Sort{Field: caselist.FieldStatus, Direction: caselist.Ascending}, ok: true},
		{spec: "status:sideways", want: caselist.Sort{}, ok: false},
		{spec: "findings", want: caselist.Sort{}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := caselist.ParseSort(tt.spec)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	filters, ok := caselist.ParseFilters([]string{"status=Open", "analystName=Ann", "status=Closed", "status=Open"})
	require.True(t, ok)
	require.Equal(t, caselist.Filters{
		caselist.FieldStatus:      {"Open", "Closed"},
		caselist.FieldAnalystName: {"Ann"},
	}, filters)

	_, ok = caselist.ParseFilters([]string{"status"})
	require.False(t, ok)
	_, ok = caselist.ParseFilters([]string{"findings=x"})
	require.False(t, ok)
}
