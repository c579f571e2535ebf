// Package llmtest provides a scripted model client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/resume-pivot/internal/llm"
)

// ErrExhausted is returned once the scripted replies run out and no handler is set
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Call records one request made to the fake
type Call struct {
	Prompt string
	Tier   llm.ModelTier
	Schema string
	JSON   bool
}

// Reply is one scripted response
type Reply struct {
	Text string
	Err  error
}

// Client is a thread-safe llm.Client that serves scripted replies in order.
// When the queue is empty it delegates to Handler, if set.
type Client struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call

	// Handler answers calls once the queue is drained
	Handler func(call Call) (string, error)
}

var _ llm.Client = (*Client)(nil)

// New returns a fake that answers with the given texts in order
func New(texts ...string) *Client {
	c := &Client{}
	for _, t := range texts {
		c.replies = append(c.replies, Reply{Text: t})
	}
	return c
}

// WithHandler returns a fake that answers every call through fn
func WithHandler(fn func(call Call) (string, error)) *Client {
	return &Client{Handler: fn}
}

// Push queues more replies
func (c *Client) Push(replies ...Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

// PushText queues successful text replies
func (c *Client) PushText(texts ...string) {
	for _, t := range texts {
		c.Push(Reply{Text: t})
	}
}

// PushError queues a failing call
func (c *Client) PushError(err error) {
	c.Push(Reply{Err: err})
}

// Calls returns a copy of the recorded calls
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many calls were made
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *Client) next(ctx context.Context, call Call) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	if len(c.replies) > 0 {
		r := c.replies[0]
		c.replies = c.replies[1:]
		c.mu.Unlock()
		return r.Text, r.Err
	}
	handler := c.Handler
	c.mu.Unlock()

	if handler != nil {
		return handler(call)
	}
	return "", ErrExhausted
}

// GenerateContent implements llm.Client
func (c *Client) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.next(ctx, Call{Prompt: prompt, Tier: tier})
}

// GenerateJSON implements llm.Client
func (c *Client) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier, schemaJSON string) (string, error) {
	return c.next(ctx, Call{Prompt: prompt, Tier: tier, Schema: schemaJSON, JSON: true})
}

// GetModel implements llm.Client
func (c *Client) GetModel(tier llm.ModelTier) string {
	return "fake-" + string(tier)
}

// Close implements llm.Client
func (c *Client) Close() error {
	return nil
}
