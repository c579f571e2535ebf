package tailoring

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/logging"
	"github.com/jonathan/resume-pivot/internal/types"
)

// ProgressEvent represents a progress update during tailoring
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when tailoring progress occurs
type ProgressCallback func(event ProgressEvent)

// Patcher is the part of the run store the pipeline writes through
type Patcher interface {
	PatchRun(ctx context.Context, id string, patch types.RunPatch) (*types.Run, error)
}

// Pipeline runs the tailoring steps in order, persisting each phase before the next step reads it.
// It is not transactional: a crash leaves the completed phases in place and Resume picks up
// from the first missing one.
type Pipeline struct {
	tailor     *Tailor
	logger     *zap.Logger
	OnProgress ProgressCallback
}

// NewPipeline creates a Pipeline
func NewPipeline(tailor *Tailor) *Pipeline {
	return &Pipeline{tailor: tailor, logger: tailor.logger}
}

// Resume runs every step from the first missing phase onward. Steps after a rerun step are
// rerun too, so no phase is left built on stale input. On success the run is marked done;
// on failure it is marked error and the error returned.
func (p *Pipeline) Resume(ctx context.Context, st Patcher, run *types.Run) (*types.Run, error) {
	log := logging.ForRun(p.logger, run.UserID, run.ID)

	rerun := false
	for _, def := range StepRegistry {
		if !rerun && run.HasPhase(def.Name) {
			continue
		}
		rerun = true

		if err := ValidateDependencies(run, def.Name); err != nil {
			return p.fail(ctx, st, run, err)
		}

		p.emit(run.ID, def.Name, "running")
		log.Debug("running tailoring step", zap.String(logging.FieldStep, def.Name))

		phase, err := p.runStep(ctx, run, def.Name)
		if err != nil {
			return p.fail(ctx, st, run, fmt.Errorf("step %s: %w", def.Name, err))
		}

		next, err := st.PatchRun(ctx, run.ID, types.RunPatch{Phases: map[string]any{def.Name: phase}})
		if err != nil {
			return p.fail(ctx, st, run, fmt.Errorf("failed to persist %s: %w", def.Name, err))
		}
		run = next
		p.emit(run.ID, def.Name, "completed")
	}

	done, err := st.PatchRun(ctx, run.ID, types.RunPatch{
		Status: types.Ptr(types.StatusDone),
		Error:  types.Ptr(""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark run done: %w", err)
	}
	log.Info("tailoring complete")
	return done, nil
}

func (p *Pipeline) runStep(ctx context.Context, run *types.Run, step string) (any, error) {
	normalized := types.EmptyNormalizedData()
	if _, err := run.Phase(types.PhaseNormalize, normalized); err != nil {
		return nil, err
	}

	switch step {
	case types.PhaseRequirements:
		var selected types.SelectedRole
		if _, err := run.Phase(types.PhaseSelectedRole, &selected); err != nil {
			return nil, err
		}
		title := selected.Role.Title
		if title == "" {
			title = run.TargetRole
		}
		jd := selected.JobDescription
		if jd == "" {
			jd = run.JobDescription
		}
		return p.tailor.ExtractRequirements(ctx, title, jd)

	case types.PhaseMapping:
		var reqs types.Requirements
		if _, err := run.Phase(types.PhaseRequirements, &reqs); err != nil {
			return nil, err
		}
		return p.tailor.MapTransferable(ctx, normalized, &reqs)

	case types.PhaseBullets:
		var mapping types.SkillMapping
		if _, err := run.Phase(types.PhaseMapping, &mapping); err != nil {
			return nil, err
		}
		return p.tailor.RewriteBullets(ctx, &mapping, run.TargetRole, normalized.AllBullets())

	case types.PhaseScoring:
		var mapping types.SkillMapping
		if _, err := run.Phase(types.PhaseMapping, &mapping); err != nil {
			return nil, err
		}
		return ScoreSkills(&mapping), nil

	case types.PhaseDraft:
		in := DraftInput{
			Title:        run.TargetRole,
			Background:   run.Background,
			Normalized:   normalized,
			Requirements: &types.Requirements{},
			Mapping:      &types.SkillMapping{},
			Bullets:      &types.TailoredBullets{},
			Scoring:      &types.SkillScoring{},
		}
		for name, dst := range map[string]any{
			types.PhaseRequirements: in.Requirements,
			types.PhaseMapping:      in.Mapping,
			types.PhaseBullets:      in.Bullets,
			types.PhaseScoring:      in.Scoring,
		} {
			if _, err := run.Phase(name, dst); err != nil {
				return nil, err
			}
		}
		return p.tailor.AssembleDraft(ctx, in)
	}
	return nil, fmt.Errorf("unknown step: %s", step)
}

func (p *Pipeline) fail(ctx context.Context, st Patcher, run *types.Run, cause error) (*types.Run, error) {
	logging.ForRun(p.logger, run.UserID, run.ID).Error("tailoring failed", zap.Error(cause))
	p.emit(run.ID, "", cause.Error())

	// The failure is recorded even when ctx was cancelled
	_, err := st.PatchRun(context.WithoutCancel(ctx), run.ID, types.RunPatch{
		Status: types.Ptr(types.StatusError),
		Error:  types.Ptr(cause.Error()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w (and failed to record error: %v)", cause, err)
	}
	return nil, cause
}

func (p *Pipeline) emit(runID, step, message string) {
	if p.OnProgress != nil {
		p.OnProgress(ProgressEvent{Step: step, Message: message, RunID: runID})
	}
}
