package evaluation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/marketing-agent/internal/types"
)

// Default returns the conservative evaluation substituted when the model
// call fails or returns nothing usable. reason becomes RawEvaluation.
func Default(reason string) types.Evaluation {
	return types.Evaluation{
		Score:            DefaultScore,
		Strengths:        []string{"Content generated successfully"},
		Improvements:     []string{},
		NeedsImprovement: false,
		RawEvaluation:    reason,
	}
}

// Format renders an Evaluation in the labeled format Parse reads.
// Parse(Format(ev)) reproduces score, criteria, strengths and improvements.
func Format(ev types.Evaluation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", LabelScore, formatScore(ev.Score))

	if len(ev.CriteriaScores) > 0 {
		names := make([]string, 0, len(ev.CriteriaScores))
		for name := range ev.CriteriaScores {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+"="+formatScore(ev.CriteriaScores[name]))
		}
		fmt.Fprintf(&sb, "%s %s\n", LabelCriteriaScores, strings.Join(parts, "; "))
	}

	fmt.Fprintf(&sb, "%s %s\n", LabelStrengths, strings.Join(ev.Strengths, "; "))

	improvements := "NONE"
	if len(ev.Improvements) > 0 {
		improvements = strings.Join(ev.Improvements, "; ")
	}
	fmt.Fprintf(&sb, "%s %s\n", LabelImprovements, improvements)

	needs := "NO"
	if ev.NeedsImprovement {
		needs = "YES"
	}
	fmt.Fprintf(&sb, "%s %s\n", LabelNeedsOptimization, needs)

	if ev.OptimizationGuidance != "" {
		fmt.Fprintf(&sb, "%s %s\n", LabelOptimizationGuidance, ev.OptimizationGuidance)
	}

	return sb.String()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
