// Package feedback implements the bounded self-evaluate and improve loop
// served by the loop service.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/marketing-agent/internal/llm"
	"github.com/jonathan/marketing-agent/internal/prompts"
	"github.com/jonathan/marketing-agent/internal/types"
)

// MaxIterationsNote is attached when no iteration was approved.
const MaxIterationsNote = "Returned after max iterations"

// Loop drafts text for a topic and revises it until the model approves it.
type Loop struct {
	client llm.Client
	logger *slog.Logger
}

// NewLoop creates a Loop. A nil logger uses slog.Default.
func NewLoop(client llm.Client, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{client: client, logger: logger.With("component", "feedback_loop")}
}

// Run validates req and executes the loop.
func (l *Loop) Run(ctx context.Context, req types.LoopRequest) (*types.LoopResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return RunLoop(ctx, l.client, l.logger, req.Topic, req.MaxIterations)
}

// RunLoop generates text about topic and then, up to maxIterations times,
// asks the model whether the text is good. An answer containing "yes"
// approves the current text; anything else triggers one improvement pass.
func RunLoop(ctx context.Context, client llm.Client, logger *slog.Logger, topic string, maxIterations int) (*types.LoopResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxIterations < 1 {
		maxIterations = types.DefaultMaxIterations
	}

	text, err := complete(ctx, client, "generate", map[string]string{"Topic": topic}, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("generating initial text: %w", err)
	}

	result := &types.LoopResult{Iterations: make([]types.LoopIteration, 0, maxIterations)}
	for i := 1; i <= maxIterations; i++ {
		verdict, err := complete(ctx, client, "self-evaluate", map[string]string{"Text": text}, llm.TierLite)
		if err != nil {
			return nil, fmt.Errorf("evaluating iteration %d: %w", i, err)
		}

		approved := IsApproved(verdict)
		result.Iterations = append(result.Iterations, types.LoopIteration{
			Iteration:  i,
			Text:       text,
			Evaluation: verdict,
			Approved:   approved,
		})
		logger.Debug("loop iteration", "iteration", i, "approved", approved)

		if approved {
			result.FinalText = text
			return result, nil
		}

		text, err = complete(ctx, client, "improve", map[string]string{"Text": text}, llm.TierStandard)
		if err != nil {
			return nil, fmt.Errorf("improving iteration %d: %w", i, err)
		}
	}

	logger.Info("loop finished without approval", "iterations", maxIterations)
	result.FinalText = text
	result.Note = MaxIterationsNote
	return result, nil
}

// IsApproved reports whether an evaluation answer contains "yes".
func IsApproved(evaluation string) bool {
	return strings.Contains(strings.ToLower(evaluation), "yes")
}

func complete(ctx context.Context, client llm.Client, key string, data map[string]string, tier llm.ModelTier) (string, error) {
	prompt := prompts.Render(prompts.FeedbackFile, key, data)
	text, err := client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
