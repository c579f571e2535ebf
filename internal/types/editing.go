package types

// EditStyle is one of the fixed rewrite styles a chat edit can request
type EditStyle string

const (
	StyleShort      EditStyle = "short"
	StyleLeadership EditStyle = "leadership"
	StyleATS        EditStyle = "ats"
	StylePlain      EditStyle = "plain"
	StyleImpact     EditStyle = "impact"
	StyleTechnical  EditStyle = "technical"
	// StyleUndo restores the latest bulletsHistory snapshot instead of rewriting
	StyleUndo EditStyle = "undo"
)

// RewriteStyles lists the styles that drive a bullet rewrite
var RewriteStyles = []EditStyle{StyleShort, StyleLeadership, StyleATS, StylePlain, StyleImpact, StyleTechnical}

// IsRewrite reports whether the style is one of RewriteStyles
func (s EditStyle) IsRewrite() bool {
	for _, style := range RewriteStyles {
		if s == style {
			return true
		}
	}
	return false
}

// Instruction returns the rewrite instruction given to the model for the style
func (s EditStyle) Instruction() string {
	switch s {
	case StyleShort:
		return "Shorten each bullet to at most 18 words while keeping the core achievement and any numbers."
	case StyleLeadership:
		return "Emphasize leadership, ownership, initiative and cross-team influence."
	case StyleATS:
		return "Optimize for applicant tracking systems: use standard job-title keywords and plain formatting, no symbols."
	case StylePlain:
		return "Remove jargon, acronyms and domain-specific terms; use plain private-sector language."
	case StyleImpact:
		return "Lead with measurable outcomes and quantify impact where the original supports it."
	case StyleTechnical:
		return "Highlight tools, systems and technical methods used."
	default:
		return "Improve clarity and impact."
	}
}

// EditTarget selects bullets of one job
type EditTarget struct {
	JobIndex      int   `json:"jobIndex"`
	BulletIndices []int `json:"bulletIndices"`
}

// Resolver layers that can produce an intent
const (
	LayerModel     = "model"
	LayerHeuristic = "heuristic"
	LayerFuzzy     = "fuzzy"
)

// BulletEditIntent is a resolved edit instruction. It is never persisted.
type BulletEditIntent struct {
	Style      EditStyle    `json:"style"`
	Targets    []EditTarget `json:"targets"`
	Confidence float64      `json:"confidence"`
	Layer      string       `json:"layer,omitempty"`
	ApplyAll   bool         `json:"apply_all,omitempty"`
}

// BulletGroup is the editable bullet list of one job
type BulletGroup struct {
	Title   string   `json:"title,omitempty"`
	Org     string   `json:"org,omitempty"`
	Bullets []string `json:"bullets"`
}

// Counts returns the bullet count per group
func Counts(groups []BulletGroup) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = len(g.Bullets)
	}
	return out
}

// CloneGroups deep-copies bullet groups
func CloneGroups(groups []BulletGroup) []BulletGroup {
	out := make([]BulletGroup, len(groups))
	for i, g := range groups {
		out[i] = BulletGroup{Title: g.Title, Org: g.Org, Bullets: append([]string{}, g.Bullets...)}
	}
	return out
}
