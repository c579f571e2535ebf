package store

import (
	"fmt"
	"time"

	"github.com/jonathan/resume-pivot/internal/types"
)

// DeepMerge merges src into dst and returns the result. Map values are merged recursively;
// every other value (arrays, strings, numbers, nil) replaces the existing one.
// Neither input is modified.
func DeepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}

// normalizePhases converts typed phase payloads into their generic JSON shape
func normalizePhases(phases map[string]any) (map[string]any, error) {
	if len(phases) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(phases))
	for name, value := range phases {
		encoded, err := types.EncodePhase(value)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", name, err)
		}
		out[name] = encoded
	}
	return out, nil
}

// applyPatch writes patch onto run in place: scalars are patch-wins, phases deep-merge.
func applyPatch(run *types.Run, patch types.RunPatch, now time.Time) error {
	if patch.Status != nil {
		run.Status = *patch.Status
	}
	setString(&run.Background, patch.Background)
	setString(&run.ResumeText, patch.ResumeText)
	setString(&run.TargetRole, patch.TargetRole)
	setString(&run.SelectedRoleID, patch.SelectedRoleID)
	setString(&run.JobDescription, patch.JobDescription)
	setString(&run.Error, patch.Error)
	if patch.JobDescriptionSource != nil {
		run.JobDescriptionSource = *patch.JobDescriptionSource
	}

	phases, err := normalizePhases(patch.Phases)
	if err != nil {
		return err
	}
	if run.Phases == nil {
		run.Phases = map[string]any{}
	}
	if phases != nil {
		run.Phases = DeepMerge(run.Phases, phases)
	}
	run.UpdatedAt = now
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// newRun builds the initial state of a run
func newRun(id, userID string, now time.Time) *types.Run {
	return &types.Run{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    types.StatusQueued,
		Phases:    map[string]any{},
	}
}

// cloneRun returns a copy whose phase tree shares no maps with run
func cloneRun(run *types.Run) *types.Run {
	cp := *run
	cp.Phases = cloneValue(run.Phases).(map[string]any)
	return &cp
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
