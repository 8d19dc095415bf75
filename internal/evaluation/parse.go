// Package evaluation turns the model's labeled free-text quality assessment
// into a types.Evaluation and back.
//
// The model's phrasing is not contractual, so parsing is lenient: lines that
// carry no recognized label and do not continue a list section are dropped,
// and unparseable values keep their defaults.
package evaluation

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/jonathan/marketing-agent/internal/types"
)

// Labels recognized at the start of a line.
const (
	LabelScore                = "SCORE:"
	LabelCriteriaScores       = "CRITERIA_SCORES:"
	LabelStrengths            = "STRENGTHS:"
	LabelImprovements         = "IMPROVEMENTS:"
	LabelNeedsOptimization    = "NEEDS_OPTIMIZATION:"
	LabelOptimizationGuidance = "OPTIMIZATION_GUIDANCE:"
)

// DefaultScore is used when the response carries no parseable score.
const DefaultScore = 7.0

// NeedsImprovementBelow forces NeedsImprovement for scores under this value.
const NeedsImprovementBelow = 7.0

type section int

const (
	sectionNone section = iota
	sectionScore
	sectionCriteria
	sectionStrengths
	sectionImprovements
	sectionNeedsOptimization
	sectionGuidance
)

var labels = []struct {
	prefix  string
	section section
}{
	// CRITERIA_SCORES must be tried before SCORE.
	{LabelCriteriaScores, sectionCriteria},
	{LabelScore, sectionScore},
	{LabelStrengths, sectionStrengths},
	{LabelImprovements, sectionImprovements},
	{LabelNeedsOptimization, sectionNeedsOptimization},
	{LabelOptimizationGuidance, sectionGuidance},
}

// Parse extracts an Evaluation from labeled model output.
func Parse(text string) types.Evaluation {
	ev := types.Evaluation{
		Score:         DefaultScore,
		Strengths:     []string{},
		Improvements:  []string{},
		RawEvaluation: text,
	}

	current := sectionNone
	var guidance []string

	for _, rawLine := range strings.Split(text, "\n") {
		line := cleanLine(rawLine)
		if line == "" {
			continue
		}

		if sec, value, ok := matchLabel(line); ok {
			current = sec
			switch sec {
			case sectionScore:
				if score, ok := parseScore(value); ok {
					ev.Score = score
				}
			case sectionCriteria:
				addCriteria(&ev, splitList(value))
			case sectionStrengths:
				ev.Strengths = appendItems(ev.Strengths, splitList(value))
			case sectionImprovements:
				if !isNone(value) {
					ev.Improvements = appendItems(ev.Improvements, splitList(value))
				}
			case sectionNeedsOptimization:
				ev.NeedsImprovement = isYes(value)
			case sectionGuidance:
				if value != "" {
					guidance = append(guidance, value)
				}
			}
			continue
		}

		// Unlabeled lines only matter as continuations of the current section.
		item, isItem := listItem(line)
		switch current {
		case sectionCriteria:
			if isItem {
				addCriteria(&ev, []string{item})
			}
		case sectionStrengths:
			if isItem {
				ev.Strengths = appendItems(ev.Strengths, []string{item})
			}
		case sectionImprovements:
			if isItem && !isNone(item) {
				ev.Improvements = appendItems(ev.Improvements, []string{item})
			}
		case sectionGuidance:
			guidance = append(guidance, item)
		}
	}

	ev.OptimizationGuidance = strings.Join(guidance, " ")

	if ev.Score < NeedsImprovementBelow {
		ev.NeedsImprovement = true
	}

	return ev
}

// cleanLine trims whitespace and markdown emphasis/heading markers that
// models like to wrap labels in ("**SCORE:** 8", "## STRENGTHS:").
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.ReplaceAll(line, "**", "")
	line = strings.TrimLeft(line, "#")
	return strings.TrimSpace(line)
}

func matchLabel(line string) (section, string, bool) {
	upper := strings.ToUpper(line)
	for _, l := range labels {
		if strings.HasPrefix(upper, l.prefix) {
			return l.section, strings.TrimSpace(line[len(l.prefix):]), true
		}
	}
	return sectionNone, "", false
}

// parseScore accepts "8", "8.5", "8/10" and "8 out of 10", clamping to [1,10].
func parseScore(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "/"); idx >= 0 {
		value = value[:idx]
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	token := strings.Trim(fields[0], "[]()*,")
	score, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return types.ClampScore(score), true
}

// splitList splits an inline list on semicolons.
func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ";") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func appendItems(dst, items []string) []string {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			dst = append(dst, item)
		}
	}
	return dst
}

// listItem strips a list marker ("- ", "* ", "• ", "1. ", "2) ").
func listItem(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}

	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return line, false
}

// addCriteria parses "name=8", "name: 8" or "name - 8" items.
func addCriteria(ev *types.Evaluation, items []string) {
	for _, item := range items {
		name, value, ok := splitCriterion(item)
		if !ok {
			continue
		}
		score, ok := parseScore(value)
		if !ok {
			continue
		}
		if ev.CriteriaScores == nil {
			ev.CriteriaScores = make(map[string]float64)
		}
		ev.CriteriaScores[normalizeCriterion(name)] = score
	}
}

func splitCriterion(item string) (string, string, bool) {
	for _, sep := range []string{"=", ":", " - "} {
		if idx := strings.LastIndex(item, sep); idx > 0 {
			return strings.TrimSpace(item[:idx]), strings.TrimSpace(item[idx+len(sep):]), true
		}
	}
	return "", "", false
}

func normalizeCriterion(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), "_")
}

func isNone(value string) bool {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(value), ".")) {
	case "none", "n/a", "na", "-":
		return true
	}
	return false
}

func isYes(value string) bool {
	value = strings.ToUpper(strings.TrimSpace(value))
	return value == "YES" || strings.HasPrefix(value, "YES ") || strings.HasPrefix(value, "YES,") || strings.HasPrefix(value, "YES.")
}
