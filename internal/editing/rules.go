package editing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-pivot/internal/types"
)

// StyleRule maps a phrase pattern to a rewrite style
type StyleRule struct {
	Pattern *regexp.Regexp
	Style   types.EditStyle
}

// StyleRules is checked in order; the first match wins
var StyleRules = []StyleRule{
	{regexp.MustCompile(`\b(undo|revert|roll ?back|go back|previous version)\b`), types.StyleUndo},
	{regexp.MustCompile(`\b(ats|applicant tracking|keywords?|keyword[- ]rich)\b`), types.StyleATS},
	{regexp.MustCompile(`\b(de-?jargon\w*|jargon|plain(er)?|simpl(e|er|ify)|civilian|layman'?s?|acronyms?)\b`), types.StylePlain},
	{regexp.MustCompile(`\b(shorten\w*|short(er)?|trim|condense|concise|tighten|brief(er)?|cut down|too long|fewer words)\b`), types.StyleShort},
	{regexp.MustCompile(`\b(impact\w*|quantif\w*|metrics?|numbers|measurable|results?|outcomes?)\b`), types.StyleImpact},
	{regexp.MustCompile(`\b(technical|tech|tools?|technolog\w*|engineering)\b`), types.StyleTechnical},
	{regexp.MustCompile(`\b(leadership|leader|lead|ownership|manag\w*|senior)\b`), types.StyleLeadership},
}

// genericImproveRe matches improvement requests that name no style; they map to leadership
var genericImproveRe = regexp.MustCompile(`\b(improve|better|polish|strengthen|enhance|punch(y| up)?|stronger|rewrite|rephrase|stand out)\b`)

// MatchStyle returns the style named by message, or "" when no rule matches.
// Generic improvement words fall back to the leadership style.
func MatchStyle(message string) types.EditStyle {
	msg := strings.ToLower(message)
	for _, rule := range StyleRules {
		if rule.Pattern.MatchString(msg) {
			return rule.Style
		}
	}
	if genericImproveRe.MatchString(msg) {
		return types.StyleLeadership
	}
	return ""
}

// IndexRule extracts zero-based bullet indices from a message for a job with n bullets.
// Extract may return indices outside [0,n); callers validate them.
type IndexRule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(match []string, n int) []int
}

var ordinals = map[string]int{
	"first": 0, "second": 1, "third": 2, "fourth": 3, "fifth": 4,
	"sixth": 5, "seventh": 6, "eighth": 7, "top": 0,
}

var counts = map[string]int{"two": 2, "three": 3, "four": 4, "2": 2, "3": 3, "4": 4}

// IndexRules is checked in order; the first match wins
var IndexRules = []IndexRule{
	{
		Name:    "range",
		Pattern: regexp.MustCompile(`\bbullets?\s*#?(\d+)\s*(?:-|–|to|through|thru)\s*#?(\d+)\b`),
		Extract: func(m []string, n int) []int {
			from, to := atoi(m[1]), atoi(m[2])
			if from > to {
				from, to = to, from
			}
			// A range starting past the end only needs its first index to be rejected
			if from > n {
				return []int{from - 1}
			}
			// Ranges running past the end mean "through the last bullet"
			if to > n {
				to = n
			}
			var out []int
			for i := from; i <= to; i++ {
				out = append(out, i-1)
			}
			return out
		},
	},
	{
		Name:    "list",
		Pattern: regexp.MustCompile(`\bbullets?\s*#?(\d+(?:\s*(?:,|and|&)\s*#?\d+)+)\b`),
		Extract: func(m []string, _ int) []int {
			var out []int
			for _, num := range regexp.MustCompile(`\d+`).FindAllString(m[1], -1) {
				out = append(out, atoi(num)-1)
			}
			return out
		},
	},
	{
		Name:    "number",
		Pattern: regexp.MustCompile(`(?:\bbullet\s*(?:number\s*|no\.?\s*)?#?(\d+)\b|\b(\d+)(?:st|nd|rd|th)\s+bullet\b)`),
		Extract: func(m []string, _ int) []int {
			if m[1] != "" {
				return []int{atoi(m[1]) - 1}
			}
			return []int{atoi(m[2]) - 1}
		},
	},
	{
		Name:    "first-last-k",
		Pattern: regexp.MustCompile(`\b(first|top|last|bottom)\s+(two|three|four|2|3|4)\s+bullets?\b`),
		Extract: func(m []string, n int) []int {
			k := counts[m[2]]
			var out []int
			if m[1] == "last" || m[1] == "bottom" {
				for i := n - k; i < n; i++ {
					out = append(out, i)
				}
				return out
			}
			for i := 0; i < k; i++ {
				out = append(out, i)
			}
			return out
		},
	},
	{
		Name:    "ordinal",
		Pattern: regexp.MustCompile(`\b(first|second|third|fourth|fifth|sixth|seventh|eighth|top|last|bottom|final)\s+(?:one|bullet|line|point)\b`),
		Extract: func(m []string, n int) []int {
			switch m[1] {
			case "last", "bottom", "final":
				return []int{n - 1}
			}
			return []int{ordinals[m[1]]}
		},
	},
	{
		Name:    "all",
		Pattern: regexp.MustCompile(`\b(all|every|each|whole|entire|everything)\b`),
		Extract: func(_ []string, n int) []int {
			return allIndices(n)
		},
	},
}

// JobRule extracts a zero-based job index for a resume with n jobs
type JobRule struct {
	Pattern *regexp.Regexp
	Extract func(match []string, n int) int
}

// JobRules is checked in order; the first match wins
var JobRules = []JobRule{
	{
		Pattern: regexp.MustCompile(`\b(?:job|role|position)\s*#?(\d+)\b`),
		Extract: func(m []string, _ int) int { return atoi(m[1]) - 1 },
	},
	{
		Pattern: regexp.MustCompile(`\b(first|second|third|fourth|fifth|last|oldest|earliest|most recent|latest|current)\s+(?:job|role|position|employer)\b`),
		Extract: func(m []string, n int) int {
			switch m[1] {
			case "last", "oldest", "earliest":
				return n - 1
			case "most recent", "latest", "current":
				return 0
			}
			return ordinals[m[1]]
		},
	},
}

// MatchIndices applies IndexRules to message for a job with n bullets.
// It reports the name of the matching rule, or "" when none matched.
func MatchIndices(message string, n int) ([]int, string) {
	msg := strings.ToLower(message)
	for _, rule := range IndexRules {
		if m := rule.Pattern.FindStringSubmatch(msg); m != nil {
			return dedupe(rule.Extract(m, n)), rule.Name
		}
	}
	return nil, ""
}

// MatchJob applies JobRules to message for a resume with n jobs
func MatchJob(message string, n int) (int, bool) {
	msg := strings.ToLower(message)
	for _, rule := range JobRules {
		if m := rule.Pattern.FindStringSubmatch(msg); m != nil {
			return rule.Extract(m, n), true
		}
	}
	return 0, false
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func dedupe(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
