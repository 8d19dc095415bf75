// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/marketing-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList writes at most limit items under a heading.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintEvaluation outputs the score, criteria and feedback of an evaluation.
func (p *Printer) PrintEvaluation(ev *types.Evaluation) {
	if ev == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:    %.1f/10\n", ev.Score))
	sb.WriteString(fmt.Sprintf("Improve:  %s\n", yesNo(ev.NeedsImprovement)))

	if len(ev.CriteriaScores) > 0 {
		sb.WriteString("\nCriteria:\n")
		names := make([]string, 0, len(ev.CriteriaScores))
		for name := range ev.CriteriaScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("  %-16s %.1f\n", name, ev.CriteriaScores[name]))
		}
	}

	if len(ev.Strengths) > 0 || len(ev.Improvements) > 0 {
		sb.WriteString("\n")
	}
	writeList(&sb, "Strengths", ev.Strengths, 3)
	writeList(&sb, "Improvements", ev.Improvements, maxItemsToShow)

	if ev.OptimizationGuidance != "" {
		sb.WriteString(fmt.Sprintf("\nGuidance: %s\n", ev.OptimizationGuidance))
	}

	p.printBox("CONTENT EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWorkflow outputs which workflow steps ran and how long they took.
func (p *Printer) PrintWorkflow(result *types.GenerationResult) {
	if result == nil {
		return
	}

	wf := result.WorkflowInfo
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Task:          %s\n", result.TaskID))
	sb.WriteString(fmt.Sprintf("Model:         %s\n", result.ModelUsed))
	sb.WriteString(fmt.Sprintf("Draft:         %s\n", check(wf.InitialGenerationCompleted)))
	evaluated := check(wf.EvaluationPerformed)
	if wf.EvaluationFallback {
		evaluated += " (fallback)"
	}
	sb.WriteString(fmt.Sprintf("Evaluation:    %s  score %.1f\n", evaluated, wf.EvaluationScore))
	sb.WriteString(fmt.Sprintf("Optimization:  %s\n", wf.OptimizationType))
	if wf.OptimizationError != "" {
		sb.WriteString(fmt.Sprintf("  ⚠ %s\n", wf.OptimizationError))
	}
	if d := result.OptimizationDetails; d != nil {
		c := d.EvaluationComparison
		sb.WriteString(fmt.Sprintf("  %.1f → %.1f (%+.1f)\n", c.InitialScore, c.OptimizedScore, c.ScoreDifference))
		sb.WriteString(fmt.Sprintf("  draft %.2fs, rewrite %.2fs\n", d.InitialGenerationTime, d.OptimizationTime))
	}
	sb.WriteString(fmt.Sprintf("Total time:    %.2fs", result.GenerationTimeSeconds))

	p.printBox("GENERATION WORKFLOW", sb.String())
}

// PrintGenerationResult outputs the workflow summary, final evaluation,
// content and metrics of a generation.
func (p *Printer) PrintGenerationResult(result *types.GenerationResult) {
	if result == nil {
		return
	}

	p.PrintWorkflow(result)
	p.PrintEvaluation(&result.Evaluation)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s for %s (%s voice)\n\n", result.ContentType, result.Platform, result.BrandVoice))
	sb.WriteString(result.Content)
	p.printBox("CONTENT", sb.String())

	m := result.EstimatedMetrics
	sb.Reset()
	sb.WriteString(fmt.Sprintf("Words: %d  Characters: %d  Hashtags: %d\n", m.WordCount, m.CharacterCount, m.HashtagCount))
	sb.WriteString(fmt.Sprintf("Length: %s  Platform fit: %s\n", m.LengthCategory, m.PlatformFit))
	sb.WriteString(fmt.Sprintf("Engagement: %s  Reading time: %ds", m.EngagementPotential, m.ReadingTimeSeconds))
	p.printBox("ESTIMATED METRICS", sb.String())

	if len(result.Suggestions) > 0 {
		sb.Reset()
		writeList(&sb, "Suggestions", result.Suggestions, maxItemsToShow)
		p.printBox("NEXT STEPS", strings.TrimSuffix(sb.String(), "\n"))
	}
}

// PrintLoopResult outputs each feedback-loop iteration.
func (p *Printer) PrintLoopResult(result *types.LoopResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	for i, it := range result.Iterations {
		status := "✗ rejected"
		if it.Approved {
			status = "✓ approved"
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", it.Iteration, status))
		sb.WriteString(fmt.Sprintf("    %s\n", strings.ReplaceAll(it.Evaluation, "\n", " ")))
		if i < len(result.Iterations)-1 {
			sb.WriteString("\n")
		}
	}
	if result.Note != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", result.Note))
	}

	p.printBox("FEEDBACK LOOP", strings.TrimSuffix(sb.String(), "\n"))
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
