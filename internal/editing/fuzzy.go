package editing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jonathan/resume-pivot/internal/types"
)

const (
	// FuzzyAcceptAll is the similarity at which every matching bullet is accepted
	FuzzyAcceptAll = 0.80
	// FuzzyFloor is the lowest similarity accepted for the single best match
	FuzzyFloor = 0.55
	// FuzzyMaxMatches caps the matches accepted at FuzzyAcceptAll
	FuzzyMaxMatches = 3
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}%$]+`)

// FuzzyMatch is one bullet compared against a quoted snippet
type FuzzyMatch struct {
	JobIndex    int
	BulletIndex int
	Score       float64
}

// Similarity returns a [0,1] normalized Levenshtein similarity between a snippet and a bullet.
// A snippet contained in the bullet scores 1. Otherwise the best-scoring window of the bullet's
// words, sized like the snippet, is used.
func Similarity(snippet, bullet string) float64 {
	s := normalizeText(snippet)
	b := normalizeText(bullet)
	if s == "" || b == "" {
		return 0
	}
	if strings.Contains(b, s) {
		return 1
	}

	best := ratio(s, b)
	sWords := strings.Fields(s)
	bWords := strings.Fields(b)
	for size := len(sWords) - 1; size <= len(sWords)+1; size++ {
		if size <= 0 || size > len(bWords) {
			continue
		}
		for start := 0; start+size <= len(bWords); start++ {
			if r := ratio(s, strings.Join(bWords[start:start+size], " ")); r > best {
				best = r
			}
		}
	}
	return best
}

func ratio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func normalizeText(s string) string {
	return strings.TrimSpace(nonWordRe.ReplaceAllString(strings.ToLower(s), " "))
}

// MatchSnippets compares every snippet with every bullet. All bullets at or above
// FuzzyAcceptAll are returned, best first and capped at FuzzyMaxMatches; failing that the single
// best bullet is returned if it clears FuzzyFloor; otherwise nil.
func MatchSnippets(snippets []string, groups []types.BulletGroup) []FuzzyMatch {
	if len(snippets) == 0 {
		return nil
	}

	var all []FuzzyMatch
	for j, g := range groups {
		for i, bullet := range g.Bullets {
			best := 0.0
			for _, snippet := range snippets {
				if s := Similarity(snippet, bullet); s > best {
					best = s
				}
			}
			all = append(all, FuzzyMatch{JobIndex: j, BulletIndex: i, Score: best})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(a, b int) bool { return all[a].Score > all[b].Score })

	var strong []FuzzyMatch
	for _, m := range all {
		if m.Score >= FuzzyAcceptAll && len(strong) < FuzzyMaxMatches {
			strong = append(strong, m)
		}
	}
	if len(strong) > 0 {
		return strong
	}
	if all[0].Score >= FuzzyFloor {
		return all[:1]
	}
	return nil
}

// targetsFromMatches groups matches by job, keeping job and bullet order
func targetsFromMatches(matches []FuzzyMatch) []types.EditTarget {
	byJob := make(map[int][]int)
	var jobs []int
	for _, m := range matches {
		if _, ok := byJob[m.JobIndex]; !ok {
			jobs = append(jobs, m.JobIndex)
		}
		byJob[m.JobIndex] = append(byJob[m.JobIndex], m.BulletIndex)
	}
	sort.Ints(jobs)

	targets := make([]types.EditTarget, 0, len(jobs))
	for _, j := range jobs {
		indices := byJob[j]
		sort.Ints(indices)
		targets = append(targets, types.EditTarget{JobIndex: j, BulletIndices: indices})
	}
	return targets
}
