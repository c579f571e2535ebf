// Package discovery turns a free-text resume into structured data and proposes target roles.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/prompts"
	"github.com/jonathan/resume-pivot/internal/schemas"
	"github.com/jonathan/resume-pivot/internal/types"
)

const (
	// MaxRoles caps the number of proposed role candidates
	MaxRoles = 10
	// MaxBulletsPerJob caps the bullets kept per experience entry
	MaxBulletsPerJob = 6
	// MaxBulletChars caps the length of a normalized bullet
	MaxBulletChars = 220
	// DefaultEnrichConcurrency bounds parallel job-description generation
	DefaultEnrichConcurrency = 4
)

// Discoverer runs the role discovery steps
type Discoverer struct {
	ex          *llm.Executor
	logger      *zap.Logger
	concurrency int
}

// New creates a Discoverer. concurrency <= 0 uses DefaultEnrichConcurrency.
func New(ex *llm.Executor, concurrency int) *Discoverer {
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}
	return &Discoverer{ex: ex, logger: ex.Logger().Named("discovery"), concurrency: concurrency}
}

// Normalize converts resume text into NormalizedData. Blank input returns empty data
// without calling the model.
func (d *Discoverer) Normalize(ctx context.Context, resumeText, background string) (*types.NormalizedData, error) {
	if strings.TrimSpace(resumeText) == "" {
		return types.EmptyNormalizedData(), nil
	}

	res := llm.Execute(ctx, d.ex, llm.Task[types.NormalizedData]{
		Name: "normalize-resume",
		Prompt: prompts.Render(prompts.Discovery, "normalize-resume", map[string]string{
			"Background": orNone(background),
			"ResumeText": resumeText,
		}),
		Schema: schemas.NormalizedData,
		Tier:   llm.TierStandard,
		Fallback: func() types.NormalizedData {
			return *ExtractFallback(resumeText)
		},
	})
	if !res.Usable() {
		return nil, fmt.Errorf("failed to normalize resume: %w", res.Err)
	}

	normalized := res.Value
	postProcess(&normalized)
	return &normalized, nil
}

// ProposeRoles asks the model for target roles. The result is never empty: when the model
// proposes nothing usable the fixed fallback roles are returned.
func (d *Discoverer) ProposeRoles(ctx context.Context, background string, normalized *types.NormalizedData) (*types.RoleDiscovery, error) {
	normalizedJSON, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal normalized resume: %w", err)
	}

	type reply struct {
		Candidates []types.RoleCandidate `json:"candidates"`
	}
	res := llm.Execute(ctx, d.ex, llm.Task[reply]{
		Name: "propose-roles",
		Prompt: prompts.Render(prompts.Discovery, "propose-roles", map[string]string{
			"MaxRoles":   strconv.Itoa(MaxRoles),
			"Background": orNone(background),
			"Normalized": string(normalizedJSON),
		}),
		Schema:   schemas.RoleCandidates,
		Tier:     llm.TierStandard,
		Fallback: func() reply { return reply{} },
	})
	if !res.Usable() {
		return nil, fmt.Errorf("failed to propose roles: %w", res.Err)
	}

	candidates := make([]types.RoleCandidate, 0, MaxRoles)
	for _, c := range res.Value.Candidates {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		c.Confidence = ClampConfidence(c.Confidence)
		c.Source = types.RoleSourceLLM
		c.JobDescription = ""
		candidates = append(candidates, c)
		if len(candidates) == MaxRoles {
			break
		}
	}

	if len(candidates) == 0 {
		d.logger.Warn("no role candidates proposed, using fallback roles")
		return &types.RoleDiscovery{Candidates: FallbackRoles(), UsedFallback: true}, nil
	}

	assignIDs(candidates)
	return &types.RoleDiscovery{Candidates: candidates}, nil
}

// GenerateShortJD writes a short job description for a role title
func (d *Discoverer) GenerateShortJD(ctx context.Context, title string) (string, error) {
	type reply struct {
		Description string `json:"description"`
	}
	res := llm.Execute(ctx, d.ex, llm.Task[reply]{
		Name:   "short-jd",
		Prompt: prompts.Render(prompts.Discovery, "short-jd", map[string]string{"Title": title}),
		Schema: schemas.JobDescription,
		Tier:   llm.TierLite,
	})
	if !res.Usable() {
		return "", fmt.Errorf("failed to generate job description for %q: %w", title, res.Err)
	}
	return strings.TrimSpace(res.Value.Description), nil
}

// Enrich fills in short job descriptions in place. Failures leave the description empty.
func (d *Discoverer) Enrich(ctx context.Context, candidates []types.RoleCandidate) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i := range candidates {
		if candidates[i].JobDescription != "" {
			continue
		}
		g.Go(func() error {
			jd, err := d.GenerateShortJD(gctx, candidates[i].Title)
			if err != nil {
				d.logger.Debug("skipping job description", zap.String("title", candidates[i].Title), zap.Error(err))
				return nil
			}
			candidates[i].JobDescription = jd
			return nil
		})
	}
	_ = g.Wait()
}

// Discover proposes roles and enriches them with short job descriptions
func (d *Discoverer) Discover(ctx context.Context, background string, normalized *types.NormalizedData) (*types.RoleDiscovery, error) {
	discovery, err := d.ProposeRoles(ctx, background, normalized)
	if err != nil {
		return nil, err
	}
	d.Enrich(ctx, discovery.Candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return discovery, nil
}

// ClampConfidence maps a model confidence into [0,1]. Values in (1,100] are read as percentages.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	if c > 1 && c <= 100 {
		c /= 100
	}
	return math.Min(c, 1)
}

func assignIDs(candidates []types.RoleCandidate) {
	for i := range candidates {
		candidates[i].ID = fmt.Sprintf("role-%d", i+1)
	}
}

func postProcess(n *types.NormalizedData) {
	n.Skills = NormalizeSkills(n.Skills)
	if n.Certifications == nil {
		n.Certifications = []string{}
	}
	if n.Education == nil {
		n.Education = []types.EducationEntry{}
	}

	experience := make([]types.ExperienceEntry, 0, len(n.Experience))
	for _, exp := range n.Experience {
		bullets := make([]string, 0, MaxBulletsPerJob)
		for _, b := range exp.Bullets {
			b = ingestion.Truncate(ingestion.StripBulletMarker(b), MaxBulletChars)
			if b == "" {
				continue
			}
			bullets = append(bullets, b)
			if len(bullets) == MaxBulletsPerJob {
				break
			}
		}
		exp.Bullets = bullets
		experience = append(experience, exp)
	}
	n.Experience = experience
}

// NormalizeSkills lower-cases, trims and de-duplicates skills, keeping first-seen order
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none provided)"
	}
	return s
}
