package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/editing"
	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/logging"
	"github.com/jonathan/resume-pivot/internal/prompts"
	"github.com/jonathan/resume-pivot/internal/schemas"
	"github.com/jonathan/resume-pivot/internal/store"
	"github.com/jonathan/resume-pivot/internal/types"
)

// ChatResult is the outcome of one chat message
type ChatResult struct {
	Reply string `json:"reply"`
	// Intent is nil when the message carried no edit
	Intent *types.BulletEditIntent `json:"intent,omitempty"`
	Run    *types.Run              `json:"run"`
}

const defaultChatReply = `I can rewrite your bullets for you. Try "shorten bullet 2", "make all bullets ATS friendly" or "quantify the impact of the first job".`

// editable is the bullet state chat edits work on. Runs whose resume had no per-job
// experience edit the flat tailored bullet list as a single job.
type editable struct {
	groups []types.BulletGroup
	flat   bool
}

func loadEditable(run *types.Run) (*editable, error) {
	var exp types.ExperiencePhase
	if _, err := run.Phase(types.PhaseExperience, &exp); err != nil {
		return nil, err
	}
	if len(exp.Jobs) > 0 {
		return &editable{groups: exp.Jobs}, nil
	}

	var tailored types.TailoredBullets
	if _, err := run.Phase(types.PhaseBullets, &tailored); err != nil {
		return nil, err
	}
	return &editable{
		groups: []types.BulletGroup{{Title: run.TargetRole, Bullets: tailored.Bullets}},
		flat:   true,
	}, nil
}

// phase returns the phase key and payload that persist groups
func (e *editable) phase(groups []types.BulletGroup) (string, any) {
	if e.flat {
		var bullets []string
		if len(groups) > 0 {
			bullets = groups[0].Bullets
		}
		return types.PhaseBullets, types.TailoredBullets{Bullets: bullets}
	}
	return types.PhaseExperience, types.ExperiencePhase{Jobs: groups}
}

func loadHistory(run *types.Run) ([]types.BulletSnapshot, error) {
	var history types.BulletsHistoryPhase
	if _, err := run.Phase(types.PhaseBulletsHistory, &history); err != nil {
		return nil, err
	}
	return history.Snapshots, nil
}

func loadChat(run *types.Run) ([]types.ChatTurn, error) {
	var chat types.ChatPhase
	if _, err := run.Phase(types.PhaseChat, &chat); err != nil {
		return nil, err
	}
	return chat.Turns, nil
}

// editableRun loads a finished run for editing
func (s *Service) editableRun(ctx context.Context, userID, runID string) (store.Store, *types.Run, error) {
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != types.StatusDone {
		return nil, nil, fmt.Errorf("%w: bullets can only be edited once tailoring is done (status %s)", ErrInvalidTransition, run.Status)
	}
	return st, run, nil
}

// ApplyChatEdit resolves a chat message into a bullet edit, applies it and records both
// sides of the conversation. Messages without an edit get a conversational reply.
func (s *Service) ApplyChatEdit(ctx context.Context, userID, runID, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	defer s.lock(userID)()
	st, run, err := s.editableRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	log := logging.ForRun(s.logger, userID, runID)

	ed, err := loadEditable(run)
	if err != nil {
		return nil, err
	}
	turns, err := loadChat(run)
	if err != nil {
		return nil, err
	}

	intent, err := s.resolver.Resolve(ctx, message, ed.groups)
	if err != nil {
		var target *editing.TargetError
		if errors.As(err, &target) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		return nil, err
	}

	phases := make(map[string]any)
	var reply string
	switch {
	case intent == nil:
		reply = s.chatReply(ctx, run, turns, message)

	case intent.Style == types.StyleUndo:
		history, err := loadHistory(run)
		if err != nil {
			return nil, err
		}
		if len(history) == 0 {
			reply = "There is nothing to undo yet."
			break
		}
		last := history[len(history)-1]
		key, value := ed.phase(last.Groups)
		phases[key] = value
		phases[types.PhaseBulletsHistory] = types.BulletsHistoryPhase{Snapshots: history[:len(history)-1]}
		reply = "Restored the previous version of your bullets."

	default:
		history, err := loadHistory(run)
		if err != nil {
			return nil, err
		}
		edited, changed := s.applyTargets(ctx, ed.groups, intent.Style, intent.Targets)
		key, value := ed.phase(edited)
		phases[key] = value
		phases[types.PhaseBulletsHistory] = types.BulletsHistoryPhase{
			Snapshots: types.PushSnapshot(history, types.BulletSnapshot{Groups: ed.groups, Reason: message}),
		}
		reply = editReply(intent, changed)
		log.Info("chat edit applied",
			zap.String("style", string(intent.Style)),
			zap.String("layer", intent.Layer),
			zap.Int("bullets", changed))
	}

	turns = append(turns,
		types.ChatTurn{Role: types.ChatRoleUser, Content: message},
		types.ChatTurn{Role: types.ChatRoleAssistant, Content: reply})
	phases[types.PhaseChat] = types.ChatPhase{Turns: types.TrimChat(turns)}

	updated, err := st.PatchRun(ctx, runID, types.RunPatch{Phases: phases})
	if err != nil {
		return nil, fmt.Errorf("failed to persist chat edit: %w", err)
	}
	return &ChatResult{Reply: reply, Intent: intent, Run: updated}, nil
}

// TransformBullets rewrites bullets in a style directly, without intent resolution.
// It returns the rewritten bullets in job then index order.
func (s *Service) TransformBullets(ctx context.Context, userID, runID string, in types.TransformInput) ([]string, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transform request: %w", err)
	}

	defer s.lock(userID)()
	st, run, err := s.editableRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	ed, err := loadEditable(run)
	if err != nil {
		return nil, err
	}

	targets, err := transformTargets(ed.groups, in)
	if err != nil {
		return nil, err
	}
	history, err := loadHistory(run)
	if err != nil {
		return nil, err
	}

	edited, _ := s.applyTargets(ctx, ed.groups, in.Style, targets)
	key, value := ed.phase(edited)
	if _, err := st.PatchRun(ctx, runID, types.RunPatch{Phases: map[string]any{
		key: value,
		types.PhaseBulletsHistory: types.BulletsHistoryPhase{
			Snapshots: types.PushSnapshot(history, types.BulletSnapshot{Groups: ed.groups, Reason: "transform " + string(in.Style)}),
		},
	}}); err != nil {
		return nil, fmt.Errorf("failed to persist transform: %w", err)
	}

	var out []string
	for _, t := range targets {
		for _, i := range t.BulletIndices {
			out = append(out, edited[t.JobIndex].Bullets[i])
		}
	}
	return out, nil
}

// UndoEdit restores the most recent bullet snapshot
func (s *Service) UndoEdit(ctx context.Context, userID, runID string) (*types.Run, error) {
	defer s.lock(userID)()
	st, run, err := s.editableRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	ed, err := loadEditable(run)
	if err != nil {
		return nil, err
	}
	history, err := loadHistory(run)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNothingToUndo
	}

	last := history[len(history)-1]
	key, value := ed.phase(last.Groups)
	return st.PatchRun(ctx, runID, types.RunPatch{Phases: map[string]any{
		key:                       value,
		types.PhaseBulletsHistory: types.BulletsHistoryPhase{Snapshots: history[:len(history)-1]},
	}})
}

// applyTargets rewrites the targeted bullets with one batch call per job. The input groups
// are not modified.
func (s *Service) applyTargets(ctx context.Context, groups []types.BulletGroup, style types.EditStyle, targets []types.EditTarget) ([]types.BulletGroup, int) {
	edited := types.CloneGroups(groups)
	changed := 0
	for _, t := range targets {
		bullets := edited[t.JobIndex].Bullets
		rewritten := s.engine.TransformBatch(ctx, bullets, style, t.BulletIndices)
		for k, i := range t.BulletIndices {
			if rewritten[k] != "" && rewritten[k] != bullets[i] {
				changed++
			}
			if rewritten[k] != "" {
				bullets[i] = rewritten[k]
			}
		}
	}
	return edited, changed
}

// transformTargets turns a TransformInput into validated targets
func transformTargets(groups []types.BulletGroup, in types.TransformInput) ([]types.EditTarget, error) {
	if in.JobIndex != nil && *in.JobIndex >= len(groups) {
		return nil, fmt.Errorf("%w: job %d does not exist (resume has %d)", ErrInvalidReference, *in.JobIndex+1, len(groups))
	}
	if in.JobIndex == nil && len(in.BulletIndices) > 0 && len(groups) > 1 {
		return nil, fmt.Errorf("%w: bullet indices need a job index when the resume has %d jobs", ErrInvalidReference, len(groups))
	}

	var targets []types.EditTarget
	for j, g := range groups {
		if in.JobIndex != nil && j != *in.JobIndex {
			continue
		}
		indices := in.BulletIndices
		if len(indices) == 0 {
			indices = make([]int, len(g.Bullets))
			for i := range indices {
				indices[i] = i
			}
		}
		for _, i := range indices {
			if i >= len(g.Bullets) {
				return nil, fmt.Errorf("%w: bullet %d does not exist in job %d (job has %d)", ErrInvalidReference, i+1, j+1, len(g.Bullets))
			}
		}
		if len(indices) > 0 {
			targets = append(targets, types.EditTarget{JobIndex: j, BulletIndices: indices})
		}
	}
	return targets, nil
}

type chatReplyPayload struct {
	Reply string `json:"reply"`
}

// chatReply answers a message that carried no edit
func (s *Service) chatReply(ctx context.Context, run *types.Run, turns []types.ChatTurn, message string) string {
	var history strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&history, "%s: %s\n", t.Role, t.Content)
	}
	if history.Len() == 0 {
		history.WriteString("(none)\n")
	}

	res := llm.Execute(ctx, s.ex, llm.Task[chatReplyPayload]{
		Name: "chat-reply",
		Prompt: prompts.Render(prompts.Editing, "chat-reply", map[string]string{
			"Role":    run.TargetRole,
			"History": history.String(),
			"Message": message,
		}),
		Schema: schemas.ChatReply,
		Tier:   llm.TierLite,
		Fallback: func() chatReplyPayload {
			return chatReplyPayload{Reply: defaultChatReply}
		},
	})
	if !res.Usable() || strings.TrimSpace(res.Value.Reply) == "" {
		return defaultChatReply
	}
	return strings.TrimSpace(res.Value.Reply)
}

func editReply(intent *types.BulletEditIntent, changed int) string {
	scope := "the selected bullets"
	if intent.ApplyAll {
		scope = "all bullets"
	}
	if changed == 0 {
		return fmt.Sprintf("I tried a %s rewrite of %s but the text came back unchanged.", intent.Style, scope)
	}
	noun := "bullets"
	if changed == 1 {
		noun = "bullet"
	}
	return fmt.Sprintf("Applied a %s rewrite to %s (%d %s changed). Say \"undo\" to revert.", intent.Style, scope, changed, noun)
}
