package llm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/llm/llmtest"
	"github.com/jonathan/resume-pivot/internal/logging"
	"github.com/jonathan/resume-pivot/internal/schemas"
)

type bulletsReply struct {
	Bullets []string `json:"bullets"`
}

func bulletsTask(fallback func() bulletsReply) llm.Task[bulletsReply] {
	return llm.Task[bulletsReply]{
		Name:     "test-bullets",
		Prompt:   "rewrite these",
		Schema:   schemas.Bullets,
		Tier:     llm.TierStandard,
		Fallback: fallback,
	}
}

func TestExecute_OK(t *testing.T) {
	fake := llmtest.New(`{"bullets": ["a", "b"]}`)
	ex := llm.NewExecutor(fake, nil)

	res := llm.Execute(context.Background(), ex, bulletsTask(nil))

	assert.Equal(t, llm.OutcomeOK, res.Outcome)
	assert.Equal(t, []string{"a", "b"}, res.Value.Bullets)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
	assert.True(t, res.Usable())

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].JSON)
	assert.Contains(t, calls[0].Prompt, "rewrite these")
	assert.Contains(t, calls[0].Prompt, `"bullets"`, "schema is embedded in the prompt")
	assert.Equal(t, schemas.MustSource(schemas.Bullets), calls[0].Schema)
}

func TestExecute_CodeFencesAreCleaned(t *testing.T) {
	fake := llmtest.New("```json\n{\"bullets\": [\"x\"]}\n```")
	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))

	assert.Equal(t, llm.OutcomeOK, res.Outcome)
	assert.Equal(t, []string{"x"}, res.Value.Bullets)
}

func TestExecute_RetriesWithCorrectiveInstruction(t *testing.T) {
	fake := llmtest.New(`not json`, `{"bullets": ["fixed"]}`)
	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))

	assert.Equal(t, llm.OutcomeOK, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []string{"fixed"}, res.Value.Bullets)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].Prompt, "test-bullets")
	assert.Contains(t, calls[1].Prompt, "invalid JSON")
}

func TestExecute_SchemaMismatchTriggersRetry(t *testing.T) {
	fake := llmtest.New(`{"items": []}`, `{"bullets": []}`)
	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))

	assert.Equal(t, llm.OutcomeOK, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Contains(t, fake.Calls()[1].Prompt, "schema mismatch")
}

func TestExecute_CallErrorTriggersRetry(t *testing.T) {
	fake := &llmtest.Client{}
	fake.PushError(errors.New("503 overloaded"))
	fake.PushText(`{"bullets": ["ok"]}`)

	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))
	assert.Equal(t, llm.OutcomeOK, res.Outcome)
	assert.Contains(t, fake.Calls()[1].Prompt, "call failed")
}

func TestExecute_Salvage(t *testing.T) {
	noisy := `Sure! Here you go: {"bullets": ["salvaged"]} Hope that helps {smile}`
	fake := llmtest.New(noisy, `still not json`)
	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))

	assert.Equal(t, llm.OutcomeSalvaged, res.Outcome)
	assert.Equal(t, []string{"salvaged"}, res.Value.Bullets)
	assert.Equal(t, 2, fake.CallCount())
}

func TestExecute_SalvagePrefersLatestReply(t *testing.T) {
	first := `prefix {"bullets": ["old"]} suffix`
	second := `prefix {"bullets": ["new"]} suffix`
	fake := llmtest.New(first, second)
	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))

	assert.Equal(t, llm.OutcomeSalvaged, res.Outcome)
	assert.Equal(t, []string{"new"}, res.Value.Bullets)
}

func TestExecute_FallbackLogsWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fake := llmtest.New(`nope`, `nope again`)
	ex := llm.NewExecutor(fake, zap.New(core))

	res := llm.Execute(context.Background(), ex, bulletsTask(func() bulletsReply {
		return bulletsReply{Bullets: []string{"default"}}
	}))

	assert.Equal(t, llm.OutcomeFallback, res.Outcome)
	assert.Equal(t, []string{"default"}, res.Value.Bullets)
	assert.Error(t, res.Err)
	assert.True(t, res.Usable())
	assert.Equal(t, 2, fake.CallCount(), "ladder is bounded to one retry")

	entries := logs.FilterMessage("using fallback").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test-bullets", entries[0].ContextMap()[logging.FieldTask])
}

func TestExecute_UnrecoverableWithoutFallback(t *testing.T) {
	fake := llmtest.New(`nope`, `nope`)
	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), bulletsTask(nil))

	assert.Equal(t, llm.OutcomeUnrecoverable, res.Outcome)
	assert.False(t, res.Usable())
	var pe *llm.ParseError
	assert.ErrorAs(t, res.Err, &pe)
}

func TestExecute_CheckFailureCountsAsParseFailure(t *testing.T) {
	fake := llmtest.New(`{"bullets": ["one"]}`, `{"bullets": ["one", "two"]}`)
	task := bulletsTask(nil)
	task.Check = func(r *bulletsReply) error {
		if len(r.Bullets) != 2 {
			return fmt.Errorf("expected 2 bullets, got %d", len(r.Bullets))
		}
		return nil
	}

	res := llm.Execute(context.Background(), llm.NewExecutor(fake, nil), task)
	assert.Equal(t, llm.OutcomeOK, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, res.Value.Bullets, 2)
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := llmtest.New(`{"bullets": ["never"]}`)
	res := llm.Execute(ctx, llm.NewExecutor(fake, nil), bulletsTask(func() bulletsReply {
		return bulletsReply{Bullets: []string{"default"}}
	}))

	assert.Equal(t, llm.OutcomeUnrecoverable, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 0, fake.CallCount())
}

func TestExecute_NilClientUsesFallback(t *testing.T) {
	res := llm.Execute(context.Background(), llm.NewExecutor(nil, nil), bulletsTask(func() bulletsReply {
		return bulletsReply{Bullets: []string{"offline"}}
	}))

	assert.Equal(t, llm.OutcomeFallback, res.Outcome)
	assert.Equal(t, []string{"offline"}, res.Value.Bullets)
}

func TestExecute_UnknownSchema(t *testing.T) {
	task := bulletsTask(nil)
	task.Schema = "missing"
	res := llm.Execute(context.Background(), llm.NewExecutor(llmtest.New(), nil), task)
	assert.Equal(t, llm.OutcomeUnrecoverable, res.Outcome)
}
