// Package pipeline provides the high-level orchestration for the resume pivot process:
// discovery, role selection, tailoring and chat-driven bullet edits, all persisted per user.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/discovery"
	"github.com/jonathan/resume-pivot/internal/editing"
	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/logging"
	"github.com/jonathan/resume-pivot/internal/store"
	"github.com/jonathan/resume-pivot/internal/tailoring"
	"github.com/jonathan/resume-pivot/internal/transform"
	"github.com/jonathan/resume-pivot/internal/types"
)

var (
	// ErrInvalidReference is returned for unknown role ids, job indices or bullet indices
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidTransition is returned when an operation is not allowed in the run's status
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNothingToUndo is returned when the bullet history is empty
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrEmptyMessage is returned for blank chat messages
	ErrEmptyMessage = errors.New("empty chat message")
)

// CustomRoleID is the candidate id given to a user-supplied role title
const CustomRoleID = "custom"

// Options configures a Service
type Options struct {
	EnrichConcurrency int
	OnProgress        tailoring.ProgressCallback
}

// Service exposes the run operations. Calls for one user are serialized; different users
// proceed in parallel.
type Service struct {
	registry   store.Registry
	ex         *llm.Executor
	discoverer *discovery.Discoverer
	tailoring  *tailoring.Pipeline
	resolver   *editing.Resolver
	engine     *transform.Engine
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	newID func() string
}

// NewService wires the discovery, tailoring and editing components around one executor
func NewService(registry store.Registry, ex *llm.Executor, opts Options) *Service {
	tp := tailoring.NewPipeline(tailoring.NewTailor(ex))
	tp.OnProgress = opts.OnProgress

	return &Service{
		registry:   registry,
		ex:         ex,
		discoverer: discovery.New(ex, opts.EnrichConcurrency),
		tailoring:  tp,
		resolver:   editing.NewResolver(ex),
		engine:     transform.NewEngine(ex),
		logger:     ex.Logger().Named("pipeline"),
		locks:      make(map[string]*sync.Mutex),
		newID:      uuid.NewString,
	}
}

// lock serializes operations for one user and returns the unlock func
func (s *Service) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) storeFor(ctx context.Context, userID string) (store.Store, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidReference)
	}
	st, err := s.registry.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open store for user: %w", err)
	}
	return st, nil
}

// CreateAndDiscover creates a run, normalizes the resume and proposes target roles.
// The returned run waits in role_selection.
func (s *Service) CreateAndDiscover(ctx context.Context, userID, background, resumeText string) (*types.Run, error) {
	defer s.lock(userID)()
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	run, err := st.CreateRun(ctx, id, types.RunPatch{
		Background: types.Ptr(background),
		ResumeText: types.Ptr(resumeText),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	log := logging.ForRun(s.logger, userID, run.ID)
	log.Info("run created")

	normalized, err := s.discoverer.Normalize(ctx, resumeText, background)
	if err != nil {
		return nil, s.fail(ctx, st, run.ID, fmt.Errorf("normalize: %w", err))
	}
	if _, err := st.PatchRun(ctx, run.ID, types.RunPatch{
		Phases: map[string]any{types.PhaseNormalize: normalized},
	}); err != nil {
		return nil, fmt.Errorf("failed to persist normalize: %w", err)
	}

	roles, err := s.discoverer.Discover(ctx, background, normalized)
	if err != nil {
		return nil, s.fail(ctx, st, run.ID, fmt.Errorf("role discovery: %w", err))
	}
	run, err = st.PatchRun(ctx, run.ID, types.RunPatch{
		Status: types.Ptr(types.StatusRoleSelection),
		Phases: map[string]any{types.PhaseRoleDiscovery: roles},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist role discovery: %w", err)
	}

	log.Info("roles proposed",
		zap.Int("candidates", len(roles.Candidates)),
		zap.Bool("fallback", roles.UsedFallback))
	return run, nil
}

// SelectRole picks a discovered candidate or a custom title and runs tailoring for it.
// Re-selecting on a finished run discards the previous tailoring output and chat edits.
func (s *Service) SelectRole(ctx context.Context, userID, runID string, in types.SelectRoleInput) (*types.Run, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid role selection: %w", err)
	}

	defer s.lock(userID)()
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(run.Status, types.StatusGenerating); err != nil {
		return nil, err
	}

	role, err := s.resolveRole(run, in)
	if err != nil {
		return nil, err
	}

	jd, source := strings.TrimSpace(in.JobDescription), types.JDSourceUserPasted
	if jd == "" {
		source = types.JDSourceLLMGenerated
		jd = role.JobDescription
		if jd == "" {
			generated, genErr := s.discoverer.GenerateShortJD(ctx, role.Title)
			if genErr != nil {
				logging.ForRun(s.logger, userID, runID).Warn("job description generation failed", zap.Error(genErr))
			}
			jd = generated
		}
	}

	run, err = s.reset(ctx, st, run, types.RunPatch{
		TargetRole:           types.Ptr(role.Title),
		SelectedRoleID:       types.Ptr(role.ID),
		JobDescription:       types.Ptr(jd),
		JobDescriptionSource: types.Ptr(source),
	}, map[string]any{
		types.PhaseSelectedRole: types.SelectedRole{Role: *role, JobDescription: jd, JobDescriptionSource: source},
	})
	if err != nil {
		return nil, err
	}

	logging.ForRun(s.logger, userID, runID).Info("role selected",
		zap.String("role", role.Title),
		zap.String("jd_source", string(source)))
	return s.tailoring.Resume(ctx, st, run)
}

// Regenerate reruns tailoring from scratch for the already selected role
func (s *Service) Regenerate(ctx context.Context, userID, runID string) (*types.Run, error) {
	defer s.lock(userID)()
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.HasPhase(types.PhaseSelectedRole) {
		return nil, fmt.Errorf("%w: no role selected", ErrInvalidTransition)
	}
	if err := checkTransition(run.Status, types.StatusGenerating); err != nil {
		return nil, err
	}

	run, err = s.reset(ctx, st, run, types.RunPatch{}, nil)
	if err != nil {
		return nil, err
	}
	logging.ForRun(s.logger, userID, runID).Info("regenerating")
	return s.tailoring.Resume(ctx, st, run)
}

// ResumeTailoring continues an interrupted tailoring pipeline from its first missing phase.
// A fully tailored run that is already done is returned unchanged.
func (s *Service) ResumeTailoring(ctx context.Context, userID, runID string) (*types.Run, error) {
	defer s.lock(userID)()
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.HasPhase(types.PhaseSelectedRole) {
		return nil, fmt.Errorf("%w: no role selected", ErrInvalidTransition)
	}
	if run.Status == types.StatusDone && tailoring.FirstMissing(run) == "" {
		return run, nil
	}

	if run.Status != types.StatusGenerating {
		if err := checkTransition(run.Status, types.StatusGenerating); err != nil {
			return nil, err
		}
		run, err = st.PatchRun(ctx, runID, types.RunPatch{
			Status: types.Ptr(types.StatusGenerating),
			Error:  types.Ptr(""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update run status: %w", err)
		}
	}

	logging.ForRun(s.logger, userID, runID).Info("resuming tailoring",
		zap.String(logging.FieldStep, tailoring.FirstMissing(run)))
	return s.tailoring.Resume(ctx, st, run)
}

// GetRun returns one run
func (s *Service) GetRun(ctx context.Context, userID, runID string) (*types.Run, error) {
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.GetRun(ctx, runID)
}

// ListHistory returns the user's most recently updated runs
func (s *Service) ListHistory(ctx context.Context, userID string, limit int) ([]types.RunSummary, error) {
	st, err := s.storeFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st.ListRecent(ctx, limit)
}

// reset clears every tailoring phase and the edit state, moves the run to generating and
// then applies scalars and extra phases. Clearing happens in its own patch so the new phase
// values replace the old ones instead of merging into them.
func (s *Service) reset(ctx context.Context, st store.Store, run *types.Run, scalars types.RunPatch, phases map[string]any) (*types.Run, error) {
	cleared := map[string]any{
		types.PhaseExperience:     nil,
		types.PhaseBulletsHistory: nil,
	}
	for _, name := range types.TailoringPhases {
		cleared[name] = nil
	}
	if phases != nil {
		if _, ok := phases[types.PhaseSelectedRole]; ok {
			cleared[types.PhaseSelectedRole] = nil
		}
	}
	if _, err := st.PatchRun(ctx, run.ID, types.RunPatch{
		Status: types.Ptr(types.StatusGenerating),
		Error:  types.Ptr(""),
		Phases: cleared,
	}); err != nil {
		return nil, fmt.Errorf("failed to reset run: %w", err)
	}

	normalized := types.EmptyNormalizedData()
	if _, err := run.Phase(types.PhaseNormalize, normalized); err != nil {
		return nil, err
	}
	if phases == nil {
		phases = make(map[string]any)
	}
	phases[types.PhaseExperience] = types.ExperiencePhase{Jobs: types.GroupsFromExperience(normalized.Experience)}
	scalars.Phases = phases

	next, err := st.PatchRun(ctx, run.ID, scalars)
	if err != nil {
		return nil, fmt.Errorf("failed to reset run: %w", err)
	}
	return next, nil
}

func (s *Service) resolveRole(run *types.Run, in types.SelectRoleInput) (*types.RoleCandidate, error) {
	if in.RoleID == "" {
		return &types.RoleCandidate{
			ID:         CustomRoleID,
			Title:      in.CustomTitle,
			Confidence: 1,
			Source:     types.RoleSourceUser,
		}, nil
	}

	var roles types.RoleDiscovery
	if _, err := run.Phase(types.PhaseRoleDiscovery, &roles); err != nil {
		return nil, err
	}
	role, ok := roles.Find(in.RoleID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidReference, in.RoleID)
	}
	if in.CustomTitle != "" {
		role.Title = in.CustomTitle
		role.Source = types.RoleSourceUser
	}
	return role, nil
}

// fail records cause on the run and returns it
func (s *Service) fail(ctx context.Context, st store.Store, runID string, cause error) error {
	s.logger.Error("run failed", zap.String(logging.FieldRunID, runID), zap.Error(cause))
	if _, err := st.PatchRun(context.WithoutCancel(ctx), runID, types.RunPatch{
		Status: types.Ptr(types.StatusError),
		Error:  types.Ptr(cause.Error()),
	}); err != nil {
		return fmt.Errorf("%w (and failed to record error: %v)", cause, err)
	}
	return cause
}

func checkTransition(from, to types.RunStatus) error {
	reason := types.TransitionForward
	if from.IsTerminal() {
		reason = types.TransitionRegenerate
	}
	if !types.CanTransition(from, to, reason) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
