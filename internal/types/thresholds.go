package types

import (
	"fmt"
	"math"
)

// Default optimization thresholds.
const (
	DefaultFullOptimizationThreshold     = 7.0
	DefaultTargetedOptimizationThreshold = 8.5
)

// Thresholds are the two cutoffs of the optimization ladder.
// Scores below Full trigger a full rewrite; scores in [Full, Targeted)
// trigger a targeted rewrite when the evaluation lists improvements.
type Thresholds struct {
	Full     float64 `json:"fullOptimizationThreshold" toml:"full_optimization_threshold"`
	Targeted float64 `json:"targetedOptimizationThreshold" toml:"targeted_optimization_threshold"`
}

// DefaultThresholds returns the stock ladder (7.0, 8.5).
func DefaultThresholds() Thresholds {
	return Thresholds{
		Full:     DefaultFullOptimizationThreshold,
		Targeted: DefaultTargetedOptimizationThreshold,
	}
}

// Validate checks both cutoffs lie on the score scale and are ordered.
func (t Thresholds) Validate() error {
	if !isFinite(t.Full) {
		return &ErrValidation{Field: "fullOptimizationThreshold", Message: "must be a finite number"}
	}
	if !isFinite(t.Targeted) {
		return &ErrValidation{Field: "targetedOptimizationThreshold", Message: "must be a finite number"}
	}
	if t.Full < MinScore || t.Full > MaxScore {
		return &ErrValidation{Field: "fullOptimizationThreshold", Message: fmt.Sprintf("must be between %.0f and %.0f", MinScore, MaxScore)}
	}
	if t.Targeted < MinScore || t.Targeted > MaxScore {
		return &ErrValidation{Field: "targetedOptimizationThreshold", Message: fmt.Sprintf("must be between %.0f and %.0f", MinScore, MaxScore)}
	}
	if t.Full > t.Targeted {
		return &ErrValidation{Field: "fullOptimizationThreshold", Message: "must not exceed targetedOptimizationThreshold"}
	}
	return nil
}

// ThresholdsUpdate is a partial update; nil fields keep their current value.
type ThresholdsUpdate struct {
	Full     *float64 `json:"fullOptimizationThreshold,omitempty"`
	Targeted *float64 `json:"targetedOptimizationThreshold,omitempty"`
}

// Apply returns t with the non-nil fields of u applied.
func (u ThresholdsUpdate) Apply(t Thresholds) Thresholds {
	if u.Full != nil {
		t.Full = *u.Full
	}
	if u.Targeted != nil {
		t.Targeted = *u.Targeted
	}
	return t
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
