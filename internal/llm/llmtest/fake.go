// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/marketing-agent/internal/llm"
)

// Response is one scripted reply. A non-nil Err is returned instead of Text.
type Response struct {
	Text string
	Err  error
}

// Call records a prompt sent to the fake.
type Call struct {
	Prompt string
	Tier   llm.ModelTier
}

// Client replays scripted responses in order and records every call.
// When a Responder is set it is consulted instead of the script.
type Client struct {
	Model     string
	Responder func(prompt string, tier llm.ModelTier) (string, error)

	mu        sync.Mutex
	responses []Response
	calls     []Call
	closed    bool
}

// New returns a fake that answers with the given texts in order.
func New(texts ...string) *Client {
	c := &Client{Model: "fake-model"}
	for _, t := range texts {
		c.responses = append(c.responses, Response{Text: t})
	}
	return c
}

// NewScript returns a fake that answers with the given responses in order.
func NewScript(responses ...Response) *Client {
	return &Client{Model: "fake-model", responses: responses}
}

// GenerateContent implements llm.Client.
func (c *Client) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{Prompt: prompt, Tier: tier})
	responder := c.Responder
	if responder == nil && len(c.responses) == 0 {
		n := len(c.calls)
		c.mu.Unlock()
		return "", fmt.Errorf("llmtest: unexpected call %d", n)
	}
	var next Response
	if responder == nil {
		next = c.responses[0]
		c.responses = c.responses[1:]
	}
	c.mu.Unlock()

	if responder != nil {
		return responder(prompt, tier)
	}
	return next.Text, next.Err
}

// GetModel implements llm.Client.
func (c *Client) GetModel(_ llm.ModelTier) string {
	return c.Model
}

// Close implements llm.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
