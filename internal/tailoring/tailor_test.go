package tailoring

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/llm/llmtest"
	"github.com/jonathan/resume-pivot/internal/types"
)

func newTailor(client llm.Client) *Tailor {
	return NewTailor(llm.NewExecutor(client, nil))
}

func sampleNormalized() *types.NormalizedData {
	n := types.EmptyNormalizedData()
	n.Name = "Ada Park"
	n.Summary = "Nurse manager"
	n.Skills = []string{"scheduling", "patient care", "excel"}
	n.Experience = []types.ExperienceEntry{
		{Title: "Charge Nurse", Bullets: []string{
			"Built weekly scheduling for 15 staff",
			"Tracked supplies in Excel spreadsheets",
		}},
		{Title: "Staff Nurse", Bullets: []string{"Delivered patient care on a 24-bed ward"}},
	}
	return n
}

func TestExtractRequirements(t *testing.T) {
	tailor := newTailor(llmtest.New(`{"must_have": [" SQL ", "sql", "", "Excel"], "nice_to_have": ["Tableau"]}`))

	reqs, err := tailor.ExtractRequirements(context.Background(), "Data Analyst", "jd")
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", "Excel"}, reqs.MustHave)
	assert.Equal(t, []string{"Tableau"}, reqs.NiceToHave)
}

func TestExtractRequirements_FallbackIsEmpty(t *testing.T) {
	tailor := newTailor(llmtest.New("nope", "nope"))

	reqs, err := tailor.ExtractRequirements(context.Background(), "Data Analyst", "")
	require.NoError(t, err)
	assert.Empty(t, reqs.MustHave)
	assert.Empty(t, reqs.NiceToHave)
	assert.NotNil(t, reqs.MustHave)
}

func TestMapTransferable_PostProcessing(t *testing.T) {
	reply := `{"links": [
		{"requirement": "Excel", "matched_skills": ["excel", "Excel"], "evidence": ["a", "b", "c", "d"]},
		{"requirement": "Tableau", "kind": "must_have", "matched_skills": [], "evidence": []},
		{"requirement": " ", "matched_skills": [], "evidence": []}
	]}`
	reqs := &types.Requirements{MustHave: []string{"Excel"}, NiceToHave: []string{"Tableau"}}

	mapping, err := newTailor(llmtest.New(reply)).MapTransferable(context.Background(), sampleNormalized(), reqs)
	require.NoError(t, err)
	require.Len(t, mapping.Links, 2)

	assert.Equal(t, types.RequirementMustHave, mapping.Links[0].Kind)
	assert.Equal(t, []string{"excel"}, mapping.Links[0].MatchedSkills)
	assert.Len(t, mapping.Links[0].Evidence, maxEvidence)
	assert.Equal(t, types.RequirementNiceToHave, mapping.Links[1].Kind, "kind comes from the requirements phase")
}

func TestMapTransferable_FallbackUsesKeywords(t *testing.T) {
	reqs := &types.Requirements{MustHave: []string{"Staff scheduling"}, NiceToHave: []string{"Advanced Excel"}}

	mapping, err := newTailor(llmtest.New("x", "y")).MapTransferable(context.Background(), sampleNormalized(), reqs)
	require.NoError(t, err)
	require.Len(t, mapping.Links, 2)

	assert.Equal(t, []string{"scheduling"}, mapping.Links[0].MatchedSkills)
	assert.Equal(t, []string{"Built weekly scheduling for 15 staff"}, mapping.Links[0].Evidence)
	assert.Equal(t, types.RequirementNiceToHave, mapping.Links[1].Kind)
	assert.Equal(t, []string{"excel"}, mapping.Links[1].MatchedSkills)
}

func TestKeywordMapping_NoRequirements(t *testing.T) {
	mapping := KeywordMapping(sampleNormalized(), nil)
	assert.Empty(t, mapping.Links)
	assert.NotNil(t, mapping.Links)
}

func TestRewriteBullets_PadsFromResume(t *testing.T) {
	tailor := newTailor(llmtest.New(`{"bullets": ["- Coordinated schedules for 15 staff"]}`))
	resume := []string{"Built weekly scheduling for 15 staff", "Tracked supplies in Excel", "Third bullet", "Fourth bullet"}

	out, err := tailor.RewriteBullets(context.Background(), &types.SkillMapping{}, "Ops Coordinator", resume)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Coordinated schedules for 15 staff",
		"Built weekly scheduling for 15 staff",
		"Tracked supplies in Excel",
	}, out.Bullets)
}

func TestRewriteBullets_CapsCountAndLength(t *testing.T) {
	items := make([]string, 12)
	for i := range items {
		items[i] = fmt.Sprintf("%q", fmt.Sprintf("bullet %d %s", i, strings.Repeat("x", i*30)))
	}
	reply := `{"bullets": [` + strings.Join(items, ",") + `]}`

	out, err := newTailor(llmtest.New(reply)).RewriteBullets(context.Background(), &types.SkillMapping{}, "t", nil)
	require.NoError(t, err)
	require.Len(t, out.Bullets, MaxBullets)
	for _, b := range out.Bullets {
		assert.LessOrEqual(t, len([]rune(b)), MaxBulletChars)
	}
}

func TestRewriteBullets_FallbackUsesResume(t *testing.T) {
	out, err := newTailor(llmtest.New("bad", "bad")).RewriteBullets(context.Background(), &types.SkillMapping{}, "t",
		[]string{"one", "two", "three", "four"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, out.Bullets)
}

func TestScoreSkills(t *testing.T) {
	mapping := &types.SkillMapping{Links: []types.SkillLink{
		{Requirement: "r1", MatchedSkills: []string{"Excel", "sql"}, Evidence: []string{"e1", "e2"}},
		{Requirement: "r2", MatchedSkills: []string{"excel"}, Evidence: []string{"e3", "e4", "e5"}},
		{Requirement: "r3", MatchedSkills: []string{"writing"}, Evidence: []string{}},
	}}

	scoring := ScoreSkills(mapping)
	require.Len(t, scoring.Skills, 3)

	assert.Equal(t, types.SkillScore{Skill: "excel", Score: 100, Depth: types.DepthAdvanced}, scoring.Skills[0])
	assert.Equal(t, types.SkillScore{Skill: "sql", Score: 70, Depth: types.DepthWorking}, scoring.Skills[1])
	assert.Equal(t, types.SkillScore{Skill: "writing", Score: 30, Depth: types.DepthFoundational}, scoring.Skills[2])
}

func TestScoreSkills_TopTen(t *testing.T) {
	var links []types.SkillLink
	for i := 0; i < 15; i++ {
		links = append(links, types.SkillLink{
			Requirement:   fmt.Sprintf("r%d", i),
			MatchedSkills: []string{fmt.Sprintf("skill-%02d", i)},
			Evidence:      make([]string, i%4),
		})
	}

	scoring := ScoreSkills(&types.SkillMapping{Links: links})
	require.Len(t, scoring.Skills, MaxScoredSkills)
	for i := 1; i < len(scoring.Skills); i++ {
		assert.GreaterOrEqual(t, scoring.Skills[i-1].Score, scoring.Skills[i].Score)
	}
	assert.Equal(t, 90, scoring.Skills[0].Score)
}

func TestAssembleDraft(t *testing.T) {
	in := DraftInput{
		Title:        "Ops Coordinator",
		Normalized:   sampleNormalized(),
		Requirements: &types.Requirements{},
		Mapping:      &types.SkillMapping{},
		Bullets:      &types.TailoredBullets{Bullets: []string{"Led things"}},
		Scoring:      &types.SkillScoring{Skills: []types.SkillScore{{Skill: "excel", Score: 50}}},
	}

	draft, err := newTailor(llmtest.New(`{"draft": "  SUMMARY\nGreat fit  "}`)).AssembleDraft(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "SUMMARY\nGreat fit", draft.Text)

	draft, err = newTailor(llmtest.New(`{"draft": "   "}`, "nope")).AssembleDraft(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, PlainDraft(in), draft.Text)
	assert.Contains(t, draft.Text, "Ada Park")
	assert.Contains(t, draft.Text, "KEY SKILLS\nexcel")
	assert.Contains(t, draft.Text, "EXPERIENCE HIGHLIGHTS\n- Led things")
}

func TestPlainDraft_Minimal(t *testing.T) {
	text := PlainDraft(DraftInput{Title: "Analyst"})
	assert.Equal(t, "Target role: Analyst\n\nSUMMARY\nCandidate transitioning into Analyst.", text)
}
