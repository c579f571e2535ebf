package types

// Requirements is the payload of the requirements phase
type Requirements struct {
	MustHave   []string `json:"must_have"`
	NiceToHave []string `json:"nice_to_have"`
}

// Requirement kinds used in a SkillMapping
const (
	RequirementMustHave   = "must_have"
	RequirementNiceToHave = "nice_to_have"
)

// SkillLink ties one requirement to the resume skills and evidence that satisfy it
type SkillLink struct {
	Requirement   string   `json:"requirement"`
	Kind          string   `json:"kind"`
	MatchedSkills []string `json:"matched_skills"`
	Evidence      []string `json:"evidence"`
}

// SkillMapping is the payload of the mapping phase
type SkillMapping struct {
	Links []SkillLink `json:"links"`
}

// TailoredBullets is the payload of the bullets phase
type TailoredBullets struct {
	Bullets []string `json:"bullets"`
}

// Skill depth levels derived from evidence count
const (
	DepthFoundational = "foundational"
	DepthWorking      = "working"
	DepthAdvanced     = "advanced"
)

// SkillScore is one scored skill
type SkillScore struct {
	Skill string `json:"skill"`
	Score int    `json:"score"`
	Depth string `json:"depth"`
}

// SkillScoring is the payload of the scoring phase
type SkillScoring struct {
	Skills []SkillScore `json:"skills"`
}

// SelectedRole is the payload of the selectedRole phase
type SelectedRole struct {
	Role                 RoleCandidate        `json:"role"`
	JobDescription       string               `json:"job_description"`
	JobDescriptionSource JobDescriptionSource `json:"job_description_source"`
}

// Draft is the payload of the draft phase
type Draft struct {
	Text string `json:"text"`
}

// ExperiencePhase is the payload of the experience phase: the editable bullets of each job
type ExperiencePhase struct {
	Jobs []BulletGroup `json:"jobs"`
}

// GroupsFromExperience builds editable bullet groups from normalized experience entries
func GroupsFromExperience(entries []ExperienceEntry) []BulletGroup {
	groups := make([]BulletGroup, 0, len(entries))
	for _, e := range entries {
		if len(e.Bullets) == 0 {
			continue
		}
		groups = append(groups, BulletGroup{Title: e.Title, Org: e.Org, Bullets: append([]string{}, e.Bullets...)})
	}
	return groups
}
