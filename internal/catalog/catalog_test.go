package catalog_test

import (
	"github.com/myrjola/dfircase/internal/catalog"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestLoad(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	steps := c.Steps()
	require.Len(t, steps, 44)
	require.Equal(t, "autopsy", steps[0].ID)

	for _, phase := range models.CanonicalPhases {
		require.NotEmpty(t, c.ForPhase(phase), "phase %s has no steps", phase)
	}

	step, ok := c.Lookup(models.StepGeneralInspection)
	require.True(t, ok)
	require.Equal(t, "General Inspection", step.Title)
	require.Equal(t, models.PhaseMalwareStatic, step.Phase)
	require.Equal(t, "CertUtil / VirusTotal", step.ToolLabel())

	registry, ok := c.Lookup("registry")
	require.True(t, ok)
	require.Equal(t, "N/A", registry.ToolLabel())
	require.Equal(t, `Hives (SYSTEM, SOFTWARE, NTUSER.DAT, etc.)`, registry.Location)

	checklist, ok := c.Lookup("ma_dynamic_checklist")
	require.True(t, ok)
	require.True(t, checklist.ReadOnly)

	_, ok = c.Lookup("missing")
	require.False(t, ok)
	require.Equal(t, -1, c.Order("missing"))
	require.Less(t, c.Order("autopsy"), c.Order("ma_general"))
}

func TestForPhase_KeepsCatalogOrder(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	memory := c.ForPhase(models.PhaseMemory)
	ids := make([]string, 0, len(memory))
	for _, s := range memory {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []string{"memory_dump", "volatility_analysis", "anomalous_processes", "suspicious_services"}, ids)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		definition string
		wantErr    bool
	}{
		{
			name:       "valid",
			definition: "- id: a\n  title: A\n  phase: MEMORY\n",
			wantErr:    false,
		},
		{
			name:       "unknown phase",
			definition: "- id: a\n  title: A\n  phase: DASHBOARD\n",
			wantErr:    true,
		},
		{
			name:       "duplicate id",
			definition: "- id: a\n  phase: MEMORY\n- id: a\n  phase: MEMORY\n",
			wantErr:    true,
		},
		{
			name:       "missing id",
			definition: "- title: A\n  phase: MEMORY\n",
			wantErr:    true,
		},
		{
			name:       "malformed",
			definition: "id: [",
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.definition))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
