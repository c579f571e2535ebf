package types

import (
	"fmt"
	"strings"
)

// RunStatus is the lifecycle state of a Run
type RunStatus string

const (
	StatusQueued        RunStatus = "queued"
	StatusRoleSelection RunStatus = "role_selection"
	StatusGenerating    RunStatus = "generating"
	StatusDone          RunStatus = "done"
	StatusError         RunStatus = "error"
)

// legacyStatuses maps older spellings onto the canonical set
var legacyStatuses = map[string]RunStatus{
	"awaiting_role": StatusRoleSelection,
	"running":       StatusGenerating,
	"completed":     StatusDone,
	"failed":        StatusError,
}

// ParseRunStatus converts a stored status string into a canonical RunStatus
func ParseRunStatus(s string) (RunStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch RunStatus(s) {
	case StatusQueued, StatusRoleSelection, StatusGenerating, StatusDone, StatusError:
		return RunStatus(s), nil
	}
	if canonical, ok := legacyStatuses[s]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

// IsTerminal reports whether the status ends the forward state machine
func (s RunStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Transition names the reason for a status change
type Transition string

const (
	// TransitionForward is a normal pipeline advance
	TransitionForward Transition = "forward"
	// TransitionRegenerate re-enters generating after done/error (re-select or re-generate)
	TransitionRegenerate Transition = "regenerate"
)

var forwardTransitions = map[RunStatus][]RunStatus{
	StatusQueued:        {StatusRoleSelection},
	StatusRoleSelection: {StatusGenerating},
	StatusGenerating:    {StatusDone, StatusGenerating},
}

// CanTransition reports whether a run may move from one status to another.
// Leaving done or error is only possible through TransitionRegenerate, which returns the
// run to generating. Error is reachable from every non-terminal state.
func CanTransition(from, to RunStatus, reason Transition) bool {
	if to == StatusError {
		return !from.IsTerminal()
	}
	if reason == TransitionRegenerate {
		return to == StatusGenerating && (from.IsTerminal() || from == StatusRoleSelection || from == StatusGenerating)
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
