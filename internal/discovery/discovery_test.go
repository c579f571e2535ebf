package discovery

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/llm/llmtest"
	"github.com/jonathan/resume-pivot/internal/types"
)

const sampleResume = `Ada Park | ada@example.com | 555-010-1234
Registered nurse with ten years of ward experience.
- Managed a 24-bed ward with 15 staff
- Cut medication errors 30% through a new checklist
Skills: Patient Care, scheduling, Patient care, Excel`

func newDiscoverer(client llm.Client) *Discoverer {
	return New(llm.NewExecutor(client, nil), 2)
}

func TestNormalize_EmptyResumeSkipsModel(t *testing.T) {
	fake := llmtest.New()
	d := newDiscoverer(fake)

	for _, input := range []string{"", "   \n\t "} {
		n, err := d.Normalize(context.Background(), input, "nurse")
		require.NoError(t, err)
		assert.Equal(t, types.EmptyNormalizedData(), n)
	}
	assert.Equal(t, 0, fake.CallCount())
}

func TestNormalize_PostProcessing(t *testing.T) {
	long := strings.Repeat("word ", 80)
	reply := `{"name": "Ada", "summary": "nurse", "skills": ["Excel", " excel ", "Patient   Care", ""],
		"experience": [{"title": "Nurse", "bullets": ["- one", "two", "three", "four", "five", "six", "seven", "` + long + `"]}]}`
	d := newDiscoverer(llmtest.New(reply))

	n, err := d.Normalize(context.Background(), sampleResume, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"excel", "patient care"}, n.Skills)
	require.Len(t, n.Experience, 1)
	assert.Len(t, n.Experience[0].Bullets, MaxBulletsPerJob)
	assert.Equal(t, "one", n.Experience[0].Bullets[0])
	assert.NotNil(t, n.Certifications)
	assert.NotNil(t, n.Education)
}

func TestNormalize_BulletLengthCapped(t *testing.T) {
	long := strings.Repeat("achieved ", 40)
	reply := `{"name": "Ada", "summary": "", "skills": [], "experience": [{"title": "Nurse", "bullets": ["` + long + `"]}]}`
	d := newDiscoverer(llmtest.New(reply))

	n, err := d.Normalize(context.Background(), sampleResume, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(n.Experience[0].Bullets[0])), MaxBulletChars)
}

func TestNormalize_FallbackExtractsSkillsLine(t *testing.T) {
	d := newDiscoverer(llmtest.New("garbage", "more garbage"))

	n, err := d.Normalize(context.Background(), sampleResume, "")
	require.NoError(t, err)

	assert.Equal(t, "Ada Park", n.Name)
	assert.Equal(t, "ada@example.com", n.Contact.Email)
	assert.Equal(t, "555-010-1234", n.Contact.Phone)
	assert.Equal(t, []string{"patient care", "scheduling", "excel"}, n.Skills)
	require.Len(t, n.Experience, 1)
	assert.Equal(t, []string{
		"Managed a 24-bed ward with 15 staff",
		"Cut medication errors 30% through a new checklist",
	}, n.Experience[0].Bullets)
}

func TestNormalize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDiscoverer(llmtest.New()).Normalize(ctx, sampleResume, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProposeRoles(t *testing.T) {
	reply := `{"candidates": [
		{"title": "Clinical Operations Manager", "confidence": 0.9, "rationale": "ward management"},
		{"title": "  ", "confidence": 0.8},
		{"title": "Health Data Analyst", "confidence": 75},
		{"title": "Trainer", "confidence": -2},
		{"title": "Overconfident", "confidence": 250}
	]}`
	d := newDiscoverer(llmtest.New(reply))

	discovery, err := d.ProposeRoles(context.Background(), "nurse", types.EmptyNormalizedData())
	require.NoError(t, err)
	require.Len(t, discovery.Candidates, 4)
	assert.False(t, discovery.UsedFallback)

	for i, c := range discovery.Candidates {
		assert.Equal(t, "role-"+string(rune('1'+i)), c.ID)
		assert.Equal(t, types.RoleSourceLLM, c.Source)
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
	assert.Equal(t, 0.9, discovery.Candidates[0].Confidence)
	assert.InDelta(t, 0.75, discovery.Candidates[1].Confidence, 1e-9)
	assert.Equal(t, 0.0, discovery.Candidates[2].Confidence)
	assert.Equal(t, 1.0, discovery.Candidates[3].Confidence)
}

func TestProposeRoles_CapsAtMax(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"candidates": [`)
	for i := 0; i < 15; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"title": "Role", "confidence": 0.5}`)
	}
	sb.WriteString(`]}`)

	discovery, err := newDiscoverer(llmtest.New(sb.String())).ProposeRoles(context.Background(), "", types.EmptyNormalizedData())
	require.NoError(t, err)
	assert.Len(t, discovery.Candidates, MaxRoles)
	assert.Equal(t, "role-10", discovery.Candidates[9].ID)
}

func TestProposeRoles_ZeroCandidatesUsesFallback(t *testing.T) {
	for name, client := range map[string]*llmtest.Client{
		"empty list":     llmtest.New(`{"candidates": []}`),
		"model failures": llmtest.New("nope", "nope"),
	} {
		t.Run(name, func(t *testing.T) {
			discovery, err := newDiscoverer(client).ProposeRoles(context.Background(), "", types.EmptyNormalizedData())
			require.NoError(t, err)
			assert.True(t, discovery.UsedFallback)
			require.Len(t, discovery.Candidates, 3)
			for _, c := range discovery.Candidates {
				assert.Equal(t, types.RoleSourceFallback, c.Source)
				assert.NotEmpty(t, c.Title)
			}
		})
	}
}

func TestDiscover_EnrichmentIsBestEffort(t *testing.T) {
	var jdCalls atomic.Int32
	fake := llmtest.WithHandler(func(call llmtest.Call) (string, error) {
		switch {
		case strings.Contains(call.Prompt, "career transition advisor"):
			return `{"candidates": [{"title": "Analyst", "confidence": 0.7}, {"title": "Broken", "confidence": 0.6}]}`, nil
		case strings.Contains(call.Prompt, `"Broken"`):
			jdCalls.Add(1)
			return "", errors.New("model unavailable")
		case strings.Contains(call.Prompt, `"Analyst"`):
			jdCalls.Add(1)
			return `{"description": "Analyze data."}`, nil
		}
		return "", errors.New("unexpected prompt")
	})

	discovery, err := newDiscoverer(fake).Discover(context.Background(), "", types.EmptyNormalizedData())
	require.NoError(t, err)
	require.Len(t, discovery.Candidates, 2)
	assert.Equal(t, "Analyze data.", discovery.Candidates[0].JobDescription)
	assert.Empty(t, discovery.Candidates[1].JobDescription)
	assert.Equal(t, int32(3), jdCalls.Load(), "one call for Analyst, two for Broken")
}

func TestClampConfidence(t *testing.T) {
	tests := map[float64]float64{
		-1:   0,
		0:    0,
		0.42: 0.42,
		1:    1,
		50:   0.5,
		100:  1,
		101:  1,
	}
	for in, want := range tests {
		assert.InDelta(t, want, ClampConfidence(in), 1e-9, "input %v", in)
	}
}

func TestExtractFallback_NoSkillsLine(t *testing.T) {
	n := ExtractFallback("Jane\nTaught chemistry for six years")
	assert.Equal(t, "Jane", n.Name)
	assert.Empty(t, n.Skills)
	assert.Empty(t, n.Experience)
}
