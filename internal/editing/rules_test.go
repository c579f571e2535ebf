package editing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pivot/internal/types"
)

func TestMatchStyle(t *testing.T) {
	tests := []struct {
		message string
		want    types.EditStyle
	}{
		{"shorten bullet 2", types.StyleShort},
		{"these are too long", types.StyleShort},
		{"make it more concise", types.StyleShort},
		{"ATS all bullets", types.StyleATS},
		{"add more keywords", types.StyleATS},
		{"de-jargon the first job", types.StylePlain},
		{"use civilian language", types.StylePlain},
		{"quantify the results", types.StyleImpact},
		{"show more impact", types.StyleImpact},
		{"highlight the tools I used", types.StyleTechnical},
		{"more leadership please", types.StyleLeadership},
		{"show that I managed people", types.StyleLeadership},
		{"improve these", types.StyleLeadership},
		{"polish bullet 3", types.StyleLeadership},
		{"undo that", types.StyleUndo},
		{"please revert", types.StyleUndo},
		{"thanks!", ""},
		{"what do you think?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchStyle(tt.message))
		})
	}
}

func TestMatchIndices(t *testing.T) {
	tests := []struct {
		message  string
		n        int
		want     []int
		wantRule string
	}{
		{"shorten bullet 2", 4, []int{1}, "number"},
		{"fix bullet #3", 4, []int{2}, "number"},
		{"the 2nd bullet", 4, []int{1}, "number"},
		{"bullets 1-3", 5, []int{0, 1, 2}, "range"},
		{"bullets 2 to 4", 5, []int{1, 2, 3}, "range"},
		{"bullets 2-9", 4, []int{1, 2, 3}, "range"},
		{"shorten bullets 2-50000000", 4, []int{1, 2, 3}, "range"},
		{"shorten bullets 5-50000000", 4, []int{4}, "range"},
		{"bullets 50000000-7", 4, []int{6}, "range"},
		{"bullets 1 and 3", 4, []int{0, 2}, "list"},
		{"bullets 1, 2, 2", 4, []int{0, 1}, "list"},
		{"the first bullet", 4, []int{0}, "ordinal"},
		{"second bullet", 4, []int{1}, "ordinal"},
		{"the last bullet", 4, []int{3}, "ordinal"},
		{"first two bullets", 4, []int{0, 1}, "first-last-k"},
		{"last two bullets", 4, []int{2, 3}, "first-last-k"},
		{"all of them", 3, []int{0, 1, 2}, "all"},
		{"every bullet", 2, []int{0, 1}, "all"},
		{"make it punchy", 3, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, rule := MatchIndices(tt.message, tt.n)
			assert.Equal(t, tt.wantRule, rule)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMatchJob(t *testing.T) {
	tests := []struct {
		message string
		want    int
		ok      bool
	}{
		{"job 2", 1, true},
		{"in role #1", 0, true},
		{"the second role", 1, true},
		{"my last job", 2, true},
		{"most recent position", 0, true},
		{"bullet 2", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := MatchJob(tt.message, 3)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseHeuristic(t *testing.T) {
	counts := []int{4, 3}

	res, err := parseHeuristic("shorten bullet 2", counts)
	assert.NoError(t, err)
	assert.Equal(t, types.StyleShort, res.Style)
	assert.Equal(t, []types.EditTarget{{JobIndex: 0, BulletIndices: []int{1}}}, res.Targets)

	res, err = parseHeuristic("make bullet 1 of job 2 more technical", counts)
	assert.NoError(t, err)
	assert.Equal(t, []types.EditTarget{{JobIndex: 1, BulletIndices: []int{0}}}, res.Targets)

	res, err = parseHeuristic("ATS the second role", counts)
	assert.NoError(t, err)
	assert.Equal(t, []types.EditTarget{{JobIndex: 1, BulletIndices: []int{0, 1, 2}}}, res.Targets)

	res, err = parseHeuristic("ATS all bullets", counts)
	assert.NoError(t, err)
	assert.False(t, res.explicit(), "all without a job cue is the apply-all default")

	res, err = parseHeuristic(`shorten "bullet 3"`, counts)
	assert.NoError(t, err)
	assert.False(t, res.explicit(), "quoted text is left to the fuzzy layer")
}

func TestParseHeuristic_OutOfRange(t *testing.T) {
	counts := []int{4, 3}

	_, err := parseHeuristic("shorten bullet 9", counts)
	var te *TargetError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, 8, te.BulletIndex)

	_, err = parseHeuristic("shorten job 5", counts)
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, -1, te.BulletIndex)
	assert.Contains(t, err.Error(), "job 5")
}

func TestParseHeuristic_HugeRangeIsRejected(t *testing.T) {
	_, err := parseHeuristic("shorten bullets 5-50000000", []int{4})

	var te *TargetError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 4, te.BulletIndex)
}

func TestParseHeuristic_EmptyJobIsNotATarget(t *testing.T) {
	res, err := parseHeuristic("shorten job 2", []int{4, 0})

	require.NoError(t, err)
	require.NotNil(t, res.JobIndex)
	assert.Equal(t, 1, *res.JobIndex)
	assert.Empty(t, res.Targets)
	assert.False(t, res.explicit())
}

func TestQuotedSnippets(t *testing.T) {
	got := quotedSnippets(`shorten "managed inventory" and “trained staff” but not 'ok'`)
	assert.Equal(t, []string{"managed inventory", "trained staff"}, got)
}

func TestParseHeuristic_ApostrophesAreNotQuotes(t *testing.T) {
	res, err := parseHeuristic("it's bullet 2 that's too long, shorten it", []int{4})
	assert.NoError(t, err)
	assert.Equal(t, []types.EditTarget{{JobIndex: 0, BulletIndices: []int{1}}}, res.Targets)
	assert.Equal(t, []string{"a single quoted bit"}, quotedSnippets("shorten 'a single quoted bit' please"))
}
