package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-pivot/internal/types"
)

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRun(&types.Run{
		ID:                   "run-1",
		Status:               types.StatusDone,
		TargetRole:           "Logistics Coordinator",
		JobDescriptionSource: types.JDSourceUserPasted,
		UpdatedAt:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Phases: map[string]any{
			types.PhaseNormalize: map[string]any{},
			types.PhaseDraft:     map[string]any{"text": "x"},
			types.PhaseMapping:   nil,
		},
	})
	output := buf.String()

	assert.Contains(t, output, "RUN")
	assert.Contains(t, output, "run-1")
	assert.Contains(t, output, "done")
	assert.Contains(t, output, "Logistics Coordinator")
	assert.Contains(t, output, "2026-01-02T03:04:05Z")
	assert.Contains(t, output, "normalize, draft")
	assert.NotContains(t, output, "mapping")
}

func TestPrintRun_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRun(nil)
	assert.Empty(t, buf.String())
}

func TestPrintRoles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRoles(&types.RoleDiscovery{
		Candidates: []types.RoleCandidate{
			{ID: "role-1", Title: "Operations Coordinator", Confidence: 0.3, Rationale: "Transfers well"},
		},
		UsedFallback: true,
	})
	output := buf.String()

	assert.Contains(t, output, "PROPOSED ROLES")
	assert.Contains(t, output, "[role-1] Operations Coordinator  (30%)")
	assert.Contains(t, output, "Transfers well")
	assert.Contains(t, output, "showing defaults")
}

func TestPrintScoring_TruncatesList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	skills := make([]types.SkillScore, 7)
	for i := range skills {
		skills[i] = types.SkillScore{Skill: "skill", Score: 50, Depth: types.DepthWorking}
	}
	p.PrintScoring(&types.SkillScoring{Skills: skills})

	assert.Contains(t, buf.String(), "... and 2 more skills")
}

func TestPrintBullets(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBullets([]types.BulletGroup{
		{Title: "Supply Sergeant", Org: "US Army", Bullets: []string{"Managed inventory", "Trained staff"}},
		{Title: "Driver", Bullets: []string{"Led convoys"}},
	})
	output := buf.String()

	assert.Contains(t, output, "Job 1: Supply Sergeant @ US Army")
	assert.Contains(t, output, "  2. Trained staff")
	assert.Contains(t, output, "Job 2: Driver")
}

func TestPrintBox_ClipsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBullets([]types.BulletGroup{{Title: "Job", Bullets: []string{strings.Repeat("é", 200)}}})

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintDraft(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDraft(&types.Draft{Text: "SUMMARY\nReady."})
	assert.Equal(t, "SUMMARY\nReady.\n", buf.String())

	buf.Reset()
	p.PrintDraft(nil)
	assert.Empty(t, buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHistory(nil)
	assert.Contains(t, buf.String(), "No runs yet.")

	buf.Reset()
	p.PrintHistory([]types.RunSummary{{ID: "run-2", Status: types.StatusRoleSelection}})
	assert.Contains(t, buf.String(), "run-2")
	assert.Contains(t, buf.String(), "role_selection")
}

func TestPrintReply(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReply("Done.", &types.BulletEditIntent{Style: types.StyleShort, Layer: types.LayerHeuristic, Confidence: 0.7})

	assert.Contains(t, buf.String(), "Done.")
	assert.Contains(t, buf.String(), "style short via heuristic")
}
