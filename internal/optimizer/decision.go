// Package optimizer implements the threshold ladder that decides whether
// generated content is rewritten, and how.
package optimizer

import (
	"fmt"

	"github.com/jonathan/marketing-agent/internal/types"
)

// Decision is the outcome of the ladder together with the reason for it.
type Decision struct {
	Strategy types.OptimizationType
	Reason   string
}

// Decide applies the ladder to a score:
//
//	score < Full                                  -> full rewrite
//	Full <= score < Targeted, improvements listed -> targeted rewrite
//	otherwise                                     -> none
func Decide(score float64, improvements []string, t types.Thresholds) Decision {
	switch {
	case score < t.Full:
		return Decision{
			Strategy: types.OptimizationFull,
			Reason:   fmt.Sprintf("score %.1f is below the full optimization threshold %.1f", score, t.Full),
		}
	case score < t.Targeted && len(improvements) > 0:
		return Decision{
			Strategy: types.OptimizationTargeted,
			Reason: fmt.Sprintf("score %.1f is below the targeted optimization threshold %.1f with %d suggested improvement(s)",
				score, t.Targeted, len(improvements)),
		}
	case score < t.Targeted:
		return Decision{
			Strategy: types.OptimizationNone,
			Reason:   fmt.Sprintf("score %.1f is acceptable and the evaluation listed no improvements", score),
		}
	default:
		return Decision{
			Strategy: types.OptimizationNone,
			Reason:   fmt.Sprintf("score %.1f meets the targeted optimization threshold %.1f", score, t.Targeted),
		}
	}
}

