// Package agent implements the evaluator-optimizer content workflow:
// draft, score, conditionally rewrite, re-score.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/marketing-agent/internal/evaluation"
	"github.com/jonathan/marketing-agent/internal/llm"
	"github.com/jonathan/marketing-agent/internal/optimizer"
	"github.com/jonathan/marketing-agent/internal/types"
)

// Agent generates, evaluates and optimizes marketing content.
type Agent struct {
	client     llm.Client
	thresholds *optimizer.ThresholdStore
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger used for workflow progress.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// WithIDGenerator overrides task ID generation, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(a *Agent) { a.newID = newID }
}

// New creates an Agent. A nil threshold store gets the default ladder.
func New(client llm.Client, thresholds *optimizer.ThresholdStore, opts ...Option) *Agent {
	if thresholds == nil {
		thresholds, _ = optimizer.NewThresholdStore(types.DefaultThresholds())
	}
	a := &Agent{
		client:     client,
		thresholds: thresholds,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "content_agent")
	a.logger.Info("content agent initialized", "model", a.Model())
	return a
}

// Model returns the model that drafts content.
func (a *Agent) Model() string {
	return a.client.GetModel(llm.TierStandard)
}

// Thresholds returns the live threshold store.
func (a *Agent) Thresholds() *optimizer.ThresholdStore {
	return a.thresholds
}

// Close releases the underlying model client.
func (a *Agent) Close() error {
	return a.client.Close()
}

// Generate runs the full workflow for one request.
// Validation failures are returned as *types.ErrMissingFields or
// *types.ErrValidation, draft failures as *GenerationError. Evaluation and
// optimization failures degrade to defaults and are reported in the result.
func (a *Agent) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	if err := types.ValidateRequest(&req); err != nil {
		return nil, err
	}
	req.ApplyDefaults()

	thresholds := a.thresholds.Get()
	start := a.now()
	log := a.logger.With("content_type", req.ContentType, "platform", req.Platform)
	log.Info("starting content generation", "topic", req.Topic)

	log.Info("step 1: generating initial content")
	draft, err := a.generateDraft(ctx, &req)
	if err != nil {
		log.Error("initial content generation failed", "error", err)
		return nil, err
	}
	initialGenerationTime := a.now().Sub(start)

	log.Info("step 2: evaluating content quality")
	evalCtx := types.EvaluationContextFor(&req)
	initialEval, initialFallback := a.evaluate(ctx, draft, evalCtx)

	decision := optimizer.Decide(initialEval.Score, initialEval.Improvements, thresholds)
	log.Info("optimization decision", "score", initialEval.Score, "strategy", decision.Strategy, "reason", decision.Reason)

	workflow := types.WorkflowInfo{
		InitialGenerationCompleted: true,
		EvaluationPerformed:        true,
		EvaluationFallback:         initialFallback,
		OptimizationType:           decision.Strategy,
		ModelUsed:                  a.Model(),
	}

	finalContent := draft
	finalEval := initialEval
	var details *types.OptimizationDetails

	if decision.Strategy != types.OptimizationNone {
		log.Info("step 3: optimizing content", "strategy", decision.Strategy)
		optStart := a.now()
		optimized, err := a.optimize(ctx, decision.Strategy, draft, initialEval, &req)
		if err != nil {
			log.Warn("optimization failed, returning unoptimized content", "error", err)
			workflow.OptimizationError = err.Error()
		} else {
			optimizedEval, optimizedFallback := a.evaluate(ctx, optimized, evalCtx)
			optimizationTime := a.now().Sub(optStart)

			finalContent = optimized
			finalEval = optimizedEval
			workflow.OptimizationPerformed = true
			workflow.OptimizationIterations = 1
			workflow.EvaluationFallback = initialFallback || optimizedFallback

			details = &types.OptimizationDetails{
				InitialContent:        draft,
				OptimizedContent:      optimized,
				OptimizationType:      decision.Strategy,
				OptimizationTime:      seconds(optimizationTime),
				InitialGenerationTime: seconds(initialGenerationTime),
				ImprovementReason:     decision.Reason,
				EvaluationComparison: types.EvaluationComparison{
					InitialScore:        initialEval.Score,
					OptimizedScore:      optimizedEval.Score,
					ScoreDifference:     round2(optimizedEval.Score - initialEval.Score),
					InitialEvaluation:   initialEval,
					OptimizedEvaluation: optimizedEval,
				},
			}
			log.Info("optimization complete",
				"initial_score", initialEval.Score,
				"optimized_score", optimizedEval.Score)
		}
	} else {
		log.Info("step 3: content quality acceptable, no optimization needed")
	}
	workflow.EvaluationScore = finalEval.Score

	suggestions := make([]string, len(finalEval.Improvements))
	copy(suggestions, finalEval.Improvements)

	elapsed := a.now().Sub(start)
	result := &types.GenerationResult{
		TaskID:                a.newID(),
		Content:               finalContent,
		ContentType:           req.ContentType,
		Platform:              req.Platform,
		BrandVoice:            req.BrandVoice,
		TargetAudience:        req.TargetAudience,
		GenerationTimeSeconds: seconds(elapsed),
		WorkflowInfo:          workflow,
		Evaluation:            finalEval,
		Metadata: types.Metadata{
			ModelUsed:           a.Model(),
			TargetAudience:      req.TargetAudience,
			KeyMessagesIncluded: len(req.KeyMessages) > 0,
			KeyMessages:         req.KeyMessages,
			LengthPreference:    req.LengthPreference,
			IncludeHashtags:     req.WantsHashtags(),
			CallToAction:        req.CallToAction,
			Thresholds:          thresholds,
		},
		OptimizationPerformed: workflow.OptimizationPerformed,
		Suggestions:           suggestions,
		EstimatedMetrics:      EstimateMetrics(finalContent, finalEval.Score, req.Platform),
		ModelUsed:             a.Model(),
		GeneratedAt:           a.now().UTC(),
		OptimizationDetails:   details,
	}

	log.Info("content generation completed", "task_id", result.TaskID, "seconds", result.GenerationTimeSeconds)
	return result, nil
}

// Evaluate scores standalone content. Only validation errors are returned;
// model failures yield the default evaluation.
func (a *Agent) Evaluate(ctx context.Context, req types.EvaluateRequest) (types.Evaluation, error) {
	if err := req.Validate(); err != nil {
		return types.Evaluation{}, err
	}
	return a.EvaluateContent(ctx, req.Content, req.Context()), nil
}

// EvaluateContent scores content against ec. Model failures and empty
// output are logged and replaced with the default evaluation.
func (a *Agent) EvaluateContent(ctx context.Context, content string, ec types.EvaluationContext) types.Evaluation {
	ev, _ := a.evaluate(ctx, content, ec)
	return ev
}

func (a *Agent) generateDraft(ctx context.Context, req *types.GenerationRequest) (string, error) {
	prompt := BuildGenerationPrompt(req)
	text, err := a.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", &GenerationError{Message: "model call failed", Cause: err}
	}
	content := llm.CleanTextBlock(text)
	if content == "" {
		return "", &GenerationError{Message: "no content generated by the model", Cause: llm.ErrEmptyResponse}
	}
	return content, nil
}

// evaluate returns the parsed evaluation and whether the default was substituted.
func (a *Agent) evaluate(ctx context.Context, content string, ec types.EvaluationContext) (types.Evaluation, bool) {
	prompt := BuildEvaluationPrompt(content, ec)
	text, err := a.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		a.logger.Error("content evaluation failed", "error", err)
		return evaluation.Default(err.Error()), true
	}
	if strings.TrimSpace(text) == "" {
		a.logger.Error("content evaluation returned no text")
		return evaluation.Default("evaluation response was empty"), true
	}
	return evaluation.Parse(text), false
}

func (a *Agent) optimize(ctx context.Context, strategy types.OptimizationType, content string, ev types.Evaluation, req *types.GenerationRequest) (string, error) {
	tier := llm.TierStandard
	prompt := BuildTargetedOptimizationPrompt(content, ev, req)
	if strategy == types.OptimizationFull {
		tier = llm.TierAdvanced
		prompt = BuildFullOptimizationPrompt(content, ev, req)
	}
	text, err := a.client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", &OptimizationError{Strategy: string(strategy), Cause: err}
	}
	optimized := llm.CleanTextBlock(text)
	if optimized == "" {
		return "", &OptimizationError{Strategy: string(strategy), Cause: fmt.Errorf("%w: empty rewrite", llm.ErrEmptyResponse)}
	}
	return optimized, nil
}

func seconds(d time.Duration) float64 {
	return round2(d.Seconds())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
