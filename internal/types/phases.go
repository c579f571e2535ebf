package types

import (
	"encoding/json"
	"fmt"
)

// Phase keys stored under Run.Phases
const (
	PhaseNormalize      = "normalize"
	PhaseRoleDiscovery  = "roleDiscovery"
	PhaseSelectedRole   = "selectedRole"
	PhaseRequirements   = "requirements"
	PhaseMapping        = "mapping"
	PhaseBullets        = "bullets"
	PhaseExperience     = "experience"
	PhaseBulletsHistory = "bulletsHistory"
	PhaseScoring        = "scoring"
	PhaseDraft          = "draft"
	PhaseChat           = "chat"
)

// TailoringPhases lists the phases written by the tailoring pipeline, in order
var TailoringPhases = []string{
	PhaseRequirements,
	PhaseMapping,
	PhaseBullets,
	PhaseScoring,
	PhaseDraft,
}

const (
	// MaxChatTurns bounds the persisted chat window
	MaxChatTurns = 12
	// MaxBulletSnapshots bounds the bulletsHistory stack
	MaxBulletSnapshots = 3
)

// EncodePhase converts a typed phase payload into the generic JSON shape stored in Run.Phases.
// Structs become map[string]any so that deep merge can see their fields.
func EncodePhase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode phase: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode phase: %w", err)
	}
	return out, nil
}

// DecodePhase converts a generic phase value into dst. It reports false when v is nil.
func DecodePhase(v any, dst any) (bool, error) {
	if v == nil {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to decode phase: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode phase: %w", err)
	}
	return true, nil
}

// ChatTurn is one message of the editing conversation
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// TrimChat keeps only the most recent MaxChatTurns turns
func TrimChat(turns []ChatTurn) []ChatTurn {
	if len(turns) <= MaxChatTurns {
		return turns
	}
	return append([]ChatTurn(nil), turns[len(turns)-MaxChatTurns:]...)
}

// BulletSnapshot is one entry of the bulletsHistory stack
type BulletSnapshot struct {
	Groups []BulletGroup `json:"groups"`
	Reason string        `json:"reason,omitempty"`
}

// PushSnapshot appends a snapshot and drops the oldest entries beyond MaxBulletSnapshots
func PushSnapshot(history []BulletSnapshot, snap BulletSnapshot) []BulletSnapshot {
	history = append(history, snap)
	if len(history) > MaxBulletSnapshots {
		history = append([]BulletSnapshot(nil), history[len(history)-MaxBulletSnapshots:]...)
	}
	return history
}

// ChatPhase is the payload of the chat phase
type ChatPhase struct {
	Turns []ChatTurn `json:"turns"`
}

// BulletsHistoryPhase is the payload of the bulletsHistory phase
type BulletsHistoryPhase struct {
	Snapshots []BulletSnapshot `json:"snapshots"`
}
