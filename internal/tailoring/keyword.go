package tailoring

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-pivot/internal/types"
)

var wordRe = regexp.MustCompile(`[a-z0-9+#]+`)

var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "experience": true, "years": true,
	"ability": true, "strong": true, "skills": true, "knowledge": true, "using": true,
	"of": true, "in": true, "to": true, "or": true, "a": true, "an": true, "on": true,
	"plus": true, "preferred": true, "required": true, "proficiency": true, "excellent": true,
}

// KeywordMapping links requirements to resume skills and bullets by shared keywords.
// It is deterministic and used when the model cannot produce a mapping.
func KeywordMapping(normalized *types.NormalizedData, reqs *types.Requirements) *types.SkillMapping {
	mapping := &types.SkillMapping{Links: []types.SkillLink{}}
	if reqs == nil {
		return mapping
	}

	var (
		skills  []string
		bullets []string
	)
	if normalized != nil {
		skills = normalized.Skills
		bullets = normalized.AllBullets()
	}

	add := func(requirement, kind string) {
		reqWords := keywords(requirement)
		link := types.SkillLink{
			Requirement:   requirement,
			Kind:          kind,
			MatchedSkills: []string{},
			Evidence:      []string{},
		}
		if len(reqWords) == 0 {
			mapping.Links = append(mapping.Links, link)
			return
		}
		for _, skill := range skills {
			if overlaps(reqWords, keywords(skill)) {
				link.MatchedSkills = append(link.MatchedSkills, skill)
			}
		}
		for _, bullet := range bullets {
			if len(link.Evidence) == maxEvidence {
				break
			}
			if overlaps(reqWords, keywords(bullet)) {
				link.Evidence = append(link.Evidence, bullet)
			}
		}
		mapping.Links = append(mapping.Links, link)
	}

	for _, r := range reqs.MustHave {
		add(r, types.RequirementMustHave)
	}
	for _, r := range reqs.NiceToHave {
		add(r, types.RequirementNiceToHave)
	}
	return mapping
}

func keywords(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		if len(w) < 2 || stopWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

func overlaps(a, b map[string]bool) bool {
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}
