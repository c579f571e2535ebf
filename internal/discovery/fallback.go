package discovery

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/types"
)

var (
	skillsLineRe  = regexp.MustCompile(`(?i)^\s*(?:technical\s+|core\s+|key\s+)?(?:skills|competencies|proficiencies)\s*[:\-–]\s*(.+)$`)
	skillsSplitRe = regexp.MustCompile(`\s*[,;|•·]\s*`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe       = regexp.MustCompile(`(?:\+?\d{1,3}[\s.\-])?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}`)
)

// FallbackRoles is the fixed candidate set used when the model proposes nothing
func FallbackRoles() []types.RoleCandidate {
	return []types.RoleCandidate{
		{
			ID:         "role-1",
			Title:      "Operations Coordinator",
			Rationale:  "Coordinating people, schedules and resources transfers across most industries.",
			Confidence: 0.3,
			Source:     types.RoleSourceFallback,
		},
		{
			ID:         "role-2",
			Title:      "Project Coordinator",
			Rationale:  "Planning and tracking work to deadlines is common to most backgrounds.",
			Confidence: 0.3,
			Source:     types.RoleSourceFallback,
		},
		{
			ID:         "role-3",
			Title:      "Customer Success Specialist",
			Rationale:  "Communication and problem-solving experience maps well to client-facing roles.",
			Confidence: 0.3,
			Source:     types.RoleSourceFallback,
		},
	}
}

// ExtractFallback builds NormalizedData from resume text without a model: the first line is
// taken as the name, a "Skills:" line supplies skills and bullet lines become one experience entry.
func ExtractFallback(resumeText string) *types.NormalizedData {
	n := types.EmptyNormalizedData()
	text := ingestion.CleanText(resumeText)
	if text == "" {
		return n
	}

	var bullets []string
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i == 0 && !ingestion.IsBulletLine(line) {
			n.Name = strings.TrimSpace(strings.Split(line, "|")[0])
		}
		if n.Contact.Email == "" {
			n.Contact.Email = emailRe.FindString(line)
		}
		if n.Contact.Phone == "" {
			n.Contact.Phone = strings.TrimSpace(phoneRe.FindString(line))
		}
		if m := skillsLineRe.FindStringSubmatch(line); m != nil {
			n.Skills = append(n.Skills, skillsSplitRe.Split(m[1], -1)...)
			continue
		}
		if ingestion.IsBulletLine(line) {
			bullets = append(bullets, ingestion.StripBulletMarker(line))
		}
	}

	n.Skills = NormalizeSkills(n.Skills)
	if len(bullets) > 0 {
		n.Experience = append(n.Experience, types.ExperienceEntry{Title: "Experience", Bullets: bullets})
	}
	postProcess(n)
	return n
}
