// Package transform rewrites batches of resume bullets in a requested style while
// guaranteeing one output per requested bullet.
package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/prompts"
	"github.com/jonathan/resume-pivot/internal/schemas"
	"github.com/jonathan/resume-pivot/internal/types"
)

// MaxBulletChars caps the length of a rewritten bullet
const MaxBulletChars = 220

// Engine rewrites bullets through the executor
type Engine struct {
	ex     *llm.Executor
	logger *zap.Logger
}

// NewEngine creates an Engine
func NewEngine(ex *llm.Executor) *Engine {
	return &Engine{ex: ex, logger: ex.Logger().Named("transform")}
}

type batchReply struct {
	Bullets []string `json:"bullets"`
}

// TransformBatch rewrites bullets[indices[i]] into out[i] in the given style.
// len(out) == len(indices) holds on every path: a structured call first, then a plain
// one-bullet-per-line call, then the original bullets unchanged. Indices outside bullets
// yield an empty string in their slot.
func (e *Engine) TransformBatch(ctx context.Context, bullets []string, style types.EditStyle, indices []int) []string {
	out := make([]string, len(indices))
	var originals []string
	var slots []int
	for pos, i := range indices {
		if i < 0 || i >= len(bullets) {
			continue
		}
		out[pos] = bullets[i]
		originals = append(originals, bullets[i])
		slots = append(slots, pos)
	}
	if len(originals) == 0 {
		return out
	}

	rewritten := e.rewrite(ctx, originals, style)
	for k, pos := range slots {
		out[pos] = rewritten[k]
	}
	return out
}

func (e *Engine) rewrite(ctx context.Context, originals []string, style types.EditStyle) []string {
	count := len(originals)
	data := map[string]string{
		"Count":       strconv.Itoa(count),
		"Instruction": style.Instruction(),
		"Bullets":     numbered(originals),
	}

	res := llm.Execute(ctx, e.ex, llm.Task[batchReply]{
		Name:   "transform-batch",
		Prompt: prompts.Render(prompts.Editing, "transform-batch", data),
		Schema: schemas.Bullets,
		Tier:   llm.TierAdvanced,
		Check: func(r *batchReply) error {
			r.Bullets = cleanAll(r.Bullets)
			if len(r.Bullets) != count {
				return fmt.Errorf("expected %d bullets, got %d", count, len(r.Bullets))
			}
			for i, b := range r.Bullets {
				if b == "" {
					return fmt.Errorf("bullet %d is empty", i)
				}
			}
			return nil
		},
	})
	if res.Usable() {
		return res.Value.Bullets
	}
	if ctx.Err() != nil {
		return originals
	}

	e.logger.Warn("batch rewrite failed, trying line mode",
		zap.String("style", string(style)),
		zap.Int("count", count),
		zap.Error(res.Err))

	lines, err := e.rewriteLines(ctx, prompts.Render(prompts.Editing, "transform-lines", data), originals)
	if err == nil {
		return lines
	}
	e.logger.Warn("line rewrite failed, keeping originals", zap.Error(err))
	return originals
}

// rewriteLines asks for plain text and splits it into bullets, padding with originals or
// truncating to the requested count
func (e *Engine) rewriteLines(ctx context.Context, prompt string, originals []string) ([]string, error) {
	client := e.ex.Client()
	if client == nil {
		return nil, fmt.Errorf("no model client")
	}
	text, err := client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, err
	}

	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, fmt.Errorf("reply has no usable lines")
	}
	out := make([]string, len(originals))
	for i := range out {
		if i < len(lines) {
			out[i] = lines[i]
		} else {
			out[i] = originals[i]
		}
	}
	return out, nil
}

// SplitLines turns a plain-text reply into bullets, dropping blank lines, list markers,
// surrounding quotes and code fences
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if cleaned := clean(line); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func cleanAll(bullets []string) []string {
	out := make([]string, len(bullets))
	for i, b := range bullets {
		out[i] = clean(b)
	}
	return out
}

func clean(line string) string {
	line = ingestion.StripBulletMarker(strings.TrimSpace(line))
	line = strings.Trim(line, "\"“”'` ")
	return ingestion.Truncate(strings.TrimSpace(line), MaxBulletChars)
}

func numbered(bullets []string) string {
	var sb strings.Builder
	for i, b := range bullets {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, b)
	}
	return sb.String()
}
