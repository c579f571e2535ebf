package types

// NormalizedData is the structured form of a free-text resume
type NormalizedData struct {
	Name           string            `json:"name"`
	Contact        Contact           `json:"contact"`
	Summary        string            `json:"summary"`
	Skills         []string          `json:"skills"`
	Certifications []string          `json:"certifications"`
	Education      []EducationEntry  `json:"education"`
	Experience     []ExperienceEntry `json:"experience"`
}

// Contact holds the contact block of a resume
type Contact struct {
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Location string   `json:"location,omitempty"`
	Links    []string `json:"links,omitempty"`
}

// EducationEntry is one degree or program
type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree,omitempty"`
	Field  string `json:"field,omitempty"`
	Year   string `json:"year,omitempty"`
}

// ExperienceEntry is one job with its achievement bullets
type ExperienceEntry struct {
	Title     string   `json:"title"`
	Org       string   `json:"org,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Bullets   []string `json:"bullets"`
}

// EmptyNormalizedData returns a NormalizedData with every list non-nil and empty
func EmptyNormalizedData() *NormalizedData {
	return &NormalizedData{
		Skills:         []string{},
		Certifications: []string{},
		Education:      []EducationEntry{},
		Experience:     []ExperienceEntry{},
	}
}

// AllBullets flattens the experience bullets in order
func (n *NormalizedData) AllBullets() []string {
	if n == nil {
		return nil
	}
	var out []string
	for _, exp := range n.Experience {
		out = append(out, exp.Bullets...)
	}
	return out
}
