// Package editing resolves free-text chat messages into structured bullet edit intents.
//
// Three layers are tried in order: a model parse, the rule tables in rules.go, and a fuzzy
// match of quoted snippets against the bullets. A confident model parse wins; explicit
// targets from the rule tables beat fuzzy matches; when nothing names a target the edit
// applies to every bullet.
package editing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/prompts"
	"github.com/jonathan/resume-pivot/internal/schemas"
	"github.com/jonathan/resume-pivot/internal/types"
)

// ModelConfidenceThreshold is the confidence a model parse must exceed to be accepted
const ModelConfidenceThreshold = 0.5

// Resolver turns chat messages into BulletEditIntents
type Resolver struct {
	ex     *llm.Executor
	logger *zap.Logger
}

// NewResolver creates a Resolver. A nil executor disables the model layer.
func NewResolver(ex *llm.Executor) *Resolver {
	r := &Resolver{ex: ex, logger: zap.NewNop()}
	if ex != nil {
		r.logger = ex.Logger().Named("editing")
	}
	return r
}

// Resolve interprets message against the current bullet groups. It returns nil when the
// message carries no actionable edit, and a *TargetError when it names a job or bullet that
// does not exist. Every returned index is within range.
func (r *Resolver) Resolve(ctx context.Context, message string, groups []types.BulletGroup) (*types.BulletEditIntent, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil
	}
	counts := types.Counts(groups)

	heuristic, herr := parseHeuristic(message, counts)
	if heuristic.Style == types.StyleUndo {
		return &types.BulletEditIntent{Style: types.StyleUndo, Confidence: 1, Layer: types.LayerHeuristic}, nil
	}
	if totalBullets(counts) == 0 {
		return nil, nil
	}

	if intent, err := r.parseWithModel(ctx, message, groups); err != nil {
		return nil, err
	} else if intent != nil {
		return intent, nil
	}

	if herr != nil {
		return nil, herr
	}
	if heuristic.Style == "" {
		return nil, nil
	}

	if heuristic.explicit() {
		return &types.BulletEditIntent{
			Style:      heuristic.Style,
			Targets:    heuristic.Targets,
			Confidence: 0.7,
			Layer:      types.LayerHeuristic,
		}, nil
	}

	if matches := MatchSnippets(quotedSnippets(message), groups); len(matches) > 0 {
		return &types.BulletEditIntent{
			Style:      heuristic.Style,
			Targets:    targetsFromMatches(matches),
			Confidence: matches[0].Score,
			Layer:      types.LayerFuzzy,
		}, nil
	}

	return &types.BulletEditIntent{
		Style:      heuristic.Style,
		Targets:    AllTargets(groups),
		Confidence: 0.6,
		Layer:      types.LayerHeuristic,
		ApplyAll:   true,
	}, nil
}

// modelIntent is the structured reply of the parse-intent task
type modelIntent struct {
	Style      string             `json:"style"`
	Targets    []types.EditTarget `json:"targets"`
	Confidence float64            `json:"confidence"`
}

// parseWithModel returns nil without error when the model declines, fails, is not confident or
// names only targets that do not exist. A confident reply naming no targets applies to all.
func (r *Resolver) parseWithModel(ctx context.Context, message string, groups []types.BulletGroup) (*types.BulletEditIntent, error) {
	if r.ex == nil || r.ex.Client() == nil {
		return nil, nil
	}

	res := llm.Execute(ctx, r.ex, llm.Task[modelIntent]{
		Name: "parse-intent",
		Prompt: prompts.Render(prompts.Editing, "parse-intent", map[string]string{
			"Listing": Listing(groups),
			"Message": message,
		}),
		Schema: schemas.EditIntent,
		Tier:   llm.TierStandard,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !res.Usable() {
		r.logger.Debug("model intent parse failed", zap.Error(res.Err))
		return nil, nil
	}

	parsed := res.Value
	style := types.EditStyle(strings.ToLower(strings.TrimSpace(parsed.Style)))
	if !style.IsRewrite() || parsed.Confidence <= ModelConfidenceThreshold {
		return nil, nil
	}

	targets := ClampTargets(parsed.Targets, types.Counts(groups))
	if len(targets) == 0 && len(parsed.Targets) > 0 {
		// Every named target was out of range; let the other layers try
		r.logger.Debug("model intent named no valid targets", zap.Int("targets", len(parsed.Targets)))
		return nil, nil
	}
	intent := &types.BulletEditIntent{
		Style:      style,
		Targets:    targets,
		Confidence: min(parsed.Confidence, 1),
		Layer:      types.LayerModel,
	}
	if len(targets) == 0 {
		intent.Targets = AllTargets(groups)
		intent.ApplyAll = true
	}
	return intent, nil
}

// ClampTargets drops out-of-range jobs and bullet indices, merges duplicate jobs and discards
// targets left without indices.
func ClampTargets(targets []types.EditTarget, counts []int) []types.EditTarget {
	byJob := make(map[int][]int)
	var order []int
	for _, t := range targets {
		if t.JobIndex < 0 || t.JobIndex >= len(counts) {
			continue
		}
		for _, i := range t.BulletIndices {
			if i < 0 || i >= counts[t.JobIndex] {
				continue
			}
			if _, ok := byJob[t.JobIndex]; !ok {
				order = append(order, t.JobIndex)
			}
			byJob[t.JobIndex] = append(byJob[t.JobIndex], i)
		}
	}

	out := make([]types.EditTarget, 0, len(order))
	for _, j := range order {
		out = append(out, types.EditTarget{JobIndex: j, BulletIndices: dedupe(byJob[j])})
	}
	return out
}

// AllTargets selects every bullet of every non-empty job
func AllTargets(groups []types.BulletGroup) []types.EditTarget {
	var out []types.EditTarget
	for j, g := range groups {
		if len(g.Bullets) > 0 {
			out = append(out, types.EditTarget{JobIndex: j, BulletIndices: allIndices(len(g.Bullets))})
		}
	}
	return out
}

// Listing renders the numbered bullet listing shown to the model
func Listing(groups []types.BulletGroup) string {
	var sb strings.Builder
	for j, g := range groups {
		header := g.Title
		if g.Org != "" {
			header = strings.TrimSpace(header + " @ " + g.Org)
		}
		fmt.Fprintf(&sb, "[job %d] %s\n", j, header)
		for i, b := range g.Bullets {
			fmt.Fprintf(&sb, "  %d: %s\n", i, b)
		}
	}
	return sb.String()
}

func totalBullets(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
