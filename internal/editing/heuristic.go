package editing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-pivot/internal/types"
)

// TargetError reports an explicit job or bullet reference that does not exist
type TargetError struct {
	JobIndex    int
	BulletIndex int
	Jobs        int
	Bullets     int
}

func (e *TargetError) Error() string {
	if e.BulletIndex < 0 {
		return fmt.Sprintf("job %d does not exist (resume has %d)", e.JobIndex+1, e.Jobs)
	}
	return fmt.Sprintf("bullet %d does not exist in job %d (job has %d)", e.BulletIndex+1, e.JobIndex+1, e.Bullets)
}

// Single quotes only count at word boundaries so apostrophes are not read as quotes
var quotedRe = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|(?:^|\s)'([^']{4,})'(?:\s|$|[.,!?])`)

// heuristicResult is what the rule tables read from a message
type heuristicResult struct {
	Style types.EditStyle
	// Targets is set only when the message named bullets or a job explicitly
	Targets []types.EditTarget
	// JobIndex is set when a job cue matched
	JobIndex *int
}

// explicit reports whether the message named specific targets
func (h heuristicResult) explicit() bool {
	return len(h.Targets) > 0
}

// parseHeuristic applies the rule tables to message. Quoted snippets are ignored here;
// they belong to the fuzzy layer.
func parseHeuristic(message string, counts []int) (heuristicResult, error) {
	bare := quotedRe.ReplaceAllString(message, " ")
	res := heuristicResult{Style: MatchStyle(bare)}
	if res.Style == types.StyleUndo || len(counts) == 0 {
		return res, nil
	}

	job := 0
	if j, ok := MatchJob(bare, len(counts)); ok {
		if j < 0 || j >= len(counts) {
			return res, &TargetError{JobIndex: j, BulletIndex: -1, Jobs: len(counts)}
		}
		job = j
		res.JobIndex = &job
	}

	indices, rule := MatchIndices(bare, counts[job])
	if rule == "" {
		if res.JobIndex != nil && counts[job] > 0 {
			res.Targets = []types.EditTarget{{JobIndex: job, BulletIndices: allIndices(counts[job])}}
		}
		return res, nil
	}
	if rule == "all" && res.JobIndex == nil {
		// "all" without a job cue is the apply-to-all default, not an explicit target
		return res, nil
	}

	for _, i := range indices {
		if i < 0 || i >= counts[job] {
			return res, &TargetError{JobIndex: job, BulletIndex: i, Jobs: len(counts), Bullets: counts[job]}
		}
	}
	if len(indices) > 0 {
		res.Targets = []types.EditTarget{{JobIndex: job, BulletIndices: indices}}
	}
	return res, nil
}

// quotedSnippets returns the quoted fragments of message
func quotedSnippets(message string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(message, -1) {
		for _, g := range m[1:] {
			if s := strings.TrimSpace(g); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
