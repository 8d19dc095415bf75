package types

import "math"

// Score bounds for evaluations.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// Evaluation is the structured form of the model's quality assessment.
// It is scraped from labeled free text, so every field may carry defaults.
type Evaluation struct {
	Score                float64            `json:"score"`
	CriteriaScores       map[string]float64 `json:"criteriaScores,omitempty"`
	Strengths            []string           `json:"strengths"`
	Improvements         []string           `json:"improvements"`
	NeedsImprovement     bool               `json:"needsImprovement"`
	OptimizationGuidance string             `json:"optimizationGuidance,omitempty"`
	RawEvaluation        string             `json:"rawEvaluation"`
}

// ClampScore limits a score to the closed interval [MinScore, MaxScore].
// NaN has no place on the scale and maps to MinScore.
func ClampScore(score float64) float64 {
	if math.IsNaN(score) || score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// EvaluationContext carries the request attributes an evaluation is judged against.
type EvaluationContext struct {
	ContentType    string
	BrandVoice     string
	Platform       string
	TargetAudience string
	KeyMessages    []string
}

// EvaluationContextFor derives the evaluation context from a generation request.
func EvaluationContextFor(req *GenerationRequest) EvaluationContext {
	return EvaluationContext{
		ContentType:    req.ContentType,
		BrandVoice:     req.BrandVoice,
		Platform:       req.Platform,
		TargetAudience: req.TargetAudience,
		KeyMessages:    req.KeyMessages,
	}
}

// Context derives the evaluation context for a standalone evaluation request,
// filling the same defaults a generation request would get.
func (r *EvaluateRequest) Context() EvaluationContext {
	ctx := EvaluationContext{
		ContentType:    r.ContentType,
		BrandVoice:     r.BrandVoice,
		Platform:       r.Platform,
		TargetAudience: r.TargetAudience,
		KeyMessages:    r.KeyMessages,
	}
	if ctx.ContentType == "" {
		ctx.ContentType = "marketing"
	}
	if ctx.BrandVoice == "" {
		ctx.BrandVoice = "consistent"
	}
	if ctx.Platform == "" {
		ctx.Platform = DefaultPlatform
	}
	if ctx.TargetAudience == "" {
		ctx.TargetAudience = DefaultTargetAudience
	}
	return ctx
}
