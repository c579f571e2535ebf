package types

// RoleSource distinguishes how a role candidate was produced
type RoleSource string

const (
	RoleSourceLLM      RoleSource = "llm_generated"
	RoleSourceUser     RoleSource = "user"
	RoleSourceFallback RoleSource = "fallback"
)

// RoleCandidate is a proposed target job role, pre-selection
type RoleCandidate struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Company        string     `json:"company,omitempty"`
	Level          string     `json:"level,omitempty"`
	Rationale      string     `json:"rationale,omitempty"`
	Confidence     float64    `json:"confidence"`
	JobDescription string     `json:"job_description,omitempty"`
	Source         RoleSource `json:"source"`
}

// RoleDiscovery is the payload of the roleDiscovery phase
type RoleDiscovery struct {
	Candidates   []RoleCandidate `json:"candidates"`
	UsedFallback bool            `json:"used_fallback,omitempty"`
}

// Find returns the candidate with the given id
func (d *RoleDiscovery) Find(id string) (*RoleCandidate, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Candidates {
		if d.Candidates[i].ID == id {
			return &d.Candidates[i], true
		}
	}
	return nil, false
}
