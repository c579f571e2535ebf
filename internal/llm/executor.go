package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/logging"
	"github.com/jonathan/resume-pivot/internal/prompts"
	"github.com/jonathan/resume-pivot/internal/schemas"
)

// Outcome tags how a task result was produced
type Outcome string

const (
	// OutcomeOK means the first or the corrective call parsed cleanly
	OutcomeOK Outcome = "ok"
	// OutcomeSalvaged means a JSON object was recovered from surrounding noise
	OutcomeSalvaged Outcome = "salvaged"
	// OutcomeFallback means the caller-supplied default was used
	OutcomeFallback Outcome = "fallback"
	// OutcomeUnrecoverable means no value could be produced and no default was supplied
	OutcomeUnrecoverable Outcome = "unrecoverable"
)

// Task describes one structured model call
type Task[T any] struct {
	// Name identifies the task in logs and corrective prompts
	Name   string
	Prompt string
	// Schema is the name of an embedded schema (see internal/schemas). Empty skips validation.
	Schema string
	Tier   ModelTier
	// Fallback produces the default value. Nil means the task has no default.
	Fallback func() T
	// Check runs after schema validation; a non-nil error counts as a parse failure.
	Check func(*T) error
}

// Result is the tagged outcome of a task
type Result[T any] struct {
	Value    T
	Outcome  Outcome
	Attempts int
	// Err holds the last failure seen. It is set for Fallback and Unrecoverable outcomes.
	Err error
}

// Usable reports whether Value holds something the caller can use
func (r Result[T]) Usable() bool {
	return r.Outcome != OutcomeUnrecoverable
}

// Executor runs structured tasks against a model client
type Executor struct {
	client Client
	logger *zap.Logger
}

// NewExecutor creates an executor. A nil client makes every task go straight to its fallback.
func NewExecutor(client Client, logger *zap.Logger) *Executor {
	return &Executor{client: client, logger: logging.OrNop(logger)}
}

// Client returns the underlying model client
func (ex *Executor) Client() Client {
	return ex.client
}

// Logger returns the executor's logger
func (ex *Executor) Logger() *zap.Logger {
	return ex.logger
}

// Execute runs a task through the call → corrective retry → salvage → fallback ladder.
// It never returns an error directly; failures are reported through Result.Outcome.
func Execute[T any](ctx context.Context, ex *Executor, task Task[T]) Result[T] {
	log := ex.logger.With(zap.String(logging.FieldTask, task.Name))

	var schemaSrc string
	if task.Schema != "" {
		src, err := schemas.Source(task.Schema)
		if err != nil {
			return finish(log, task, 0, err)
		}
		schemaSrc = src
	}

	if ex.client == nil {
		return finish(log, task, 0, errors.New("no model client configured"))
	}

	prompt := task.Prompt
	if schemaSrc != "" {
		prompt += prompts.Render(prompts.Executor, "schema-instructions", map[string]string{"Schema": schemaSrc})
	}

	var (
		raws    []string
		lastErr error
	)

	attempt := func(p string) (T, bool) {
		var zero T
		raw, err := ex.client.GenerateJSON(ctx, p, task.Tier, schemaSrc)
		if err != nil {
			lastErr = err
			log.Debug("model call failed", zap.Error(err))
			return zero, false
		}
		raws = append(raws, raw)
		value, err := parseReply(task, CleanJSONBlock(raw))
		if err != nil {
			lastErr = err
			log.Debug("model reply rejected",
				zap.Error(err),
				zap.String("reply", logging.TruncateForLog(raw, 200)))
			return zero, false
		}
		return value, true
	}

	if value, ok := attempt(prompt); ok {
		return Result[T]{Value: value, Outcome: OutcomeOK, Attempts: 1}
	}
	if ctx.Err() != nil {
		return Result[T]{Outcome: OutcomeUnrecoverable, Attempts: 1, Err: ctx.Err()}
	}

	corrective := prompt + prompts.Render(prompts.Executor, "corrective", map[string]string{
		"Name":    task.Name,
		"Problem": problemSummary(lastErr),
	})
	if value, ok := attempt(corrective); ok {
		return Result[T]{Value: value, Outcome: OutcomeOK, Attempts: 2}
	}
	if ctx.Err() != nil {
		return Result[T]{Outcome: OutcomeUnrecoverable, Attempts: 2, Err: ctx.Err()}
	}

	for i := len(raws) - 1; i >= 0; i-- {
		var salvaged T
		found := SalvageJSONObject(raws[i], func(candidate string) bool {
			value, err := parseReply(task, candidate)
			if err != nil {
				return false
			}
			salvaged = value
			return true
		})
		if found != "" {
			log.Info("salvaged model reply", zap.Int("reply_index", i))
			return Result[T]{Value: salvaged, Outcome: OutcomeSalvaged, Attempts: 2}
		}
	}

	return finish(log, task, 2, lastErr)
}

func finish[T any](log *zap.Logger, task Task[T], attempts int, cause error) Result[T] {
	if cause == nil {
		cause = errors.New("no usable reply")
	}
	if task.Fallback == nil {
		log.Warn("task unrecoverable", zap.Int("attempts", attempts), zap.Error(cause))
		return Result[T]{Outcome: OutcomeUnrecoverable, Attempts: attempts, Err: cause}
	}
	log.Warn("using fallback", zap.Int("attempts", attempts), zap.Error(cause))
	return Result[T]{Value: task.Fallback(), Outcome: OutcomeFallback, Attempts: attempts, Err: cause}
}

func parseReply[T any](task Task[T], text string) (T, error) {
	var value T
	if text == "" {
		return value, &ParseError{Task: task.Name, Message: "empty reply"}
	}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return value, &ParseError{Task: task.Name, Message: "invalid JSON", Cause: err}
	}
	if task.Schema != "" {
		if err := schemas.Validate(task.Schema, []byte(text)); err != nil {
			return value, &ParseError{Task: task.Name, Message: "schema mismatch", Cause: err}
		}
	}
	if task.Check != nil {
		if err := task.Check(&value); err != nil {
			return value, &ParseError{Task: task.Name, Message: "check failed", Cause: err}
		}
	}
	return value, nil
}

func problemSummary(err error) string {
	if err == nil {
		return "unknown problem"
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return fmt.Sprintf("call failed: %s", logging.TruncateForLog(err.Error(), 120))
}
