// Package types provides type definitions for structured data used throughout the resume-pivot system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"
)

// JobDescriptionSource records where a run's job description came from
type JobDescriptionSource string

const (
	// JDSourceUserPasted marks a job description pasted by the user
	JDSourceUserPasted JobDescriptionSource = "user_pasted"
	// JDSourceLLMGenerated marks a job description produced by the model
	JDSourceLLMGenerated JobDescriptionSource = "llm_generated"
)

// Run is one resume-transformation session and its accumulated phase outputs.
type Run struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"user_id"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Status               RunStatus            `json:"status"`
	Background           string               `json:"background,omitempty"`
	ResumeText           string               `json:"resume_text,omitempty"`
	TargetRole           string               `json:"target_role,omitempty"`
	SelectedRoleID       string               `json:"selected_role_id,omitempty"`
	JobDescription       string               `json:"job_description,omitempty"`
	JobDescriptionSource JobDescriptionSource `json:"job_description_source,omitempty"`
	Error                string               `json:"error,omitempty"`
	Phases               map[string]any       `json:"phases"`
}

// Summary returns the history-index view of the run
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Status:     r.Status,
		TargetRole: r.TargetRole,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Phase decodes the named phase into dst. It reports false when the phase is absent or null.
func (r *Run) Phase(name string, dst any) (bool, error) {
	if r == nil || r.Phases == nil {
		return false, nil
	}
	return DecodePhase(r.Phases[name], dst)
}

// HasPhase reports whether the named phase holds a non-null value
func (r *Run) HasPhase(name string) bool {
	if r == nil || r.Phases == nil {
		return false
	}
	v, ok := r.Phases[name]
	return ok && v != nil
}

// RunSummary is the lightweight record kept in the recency index
type RunSummary struct {
	ID         string    `json:"id"`
	Status     RunStatus `json:"status"`
	TargetRole string    `json:"target_role,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunPatch describes a partial update to a Run.
// Nil scalar fields keep the existing value; Phases are deep-merged.
type RunPatch struct {
	Status               *RunStatus
	Background           *string
	ResumeText           *string
	TargetRole           *string
	SelectedRoleID       *string
	JobDescription       *string
	JobDescriptionSource *JobDescriptionSource
	Error                *string
	Phases               map[string]any
}

// CanSynthesize reports whether the patch carries enough to create a run that does not exist yet
func (p RunPatch) CanSynthesize() bool {
	return p.Status != nil
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
