package agent

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/marketing-agent/internal/types"
)

// wordsPerMinute is the reading speed used for reading-time estimates.
const wordsPerMinute = 200

// platformCharLimits are the post length limits of the major platforms.
var platformCharLimits = map[string]int{
	"twitter":   280,
	"x":         280,
	"instagram": 2200,
	"linkedin":  3000,
	"facebook":  63206,
}

// EstimateMetrics derives display metrics from the final content.
func EstimateMetrics(content string, score float64, platform string) types.EstimatedMetrics {
	words := strings.Fields(content)
	chars := utf8.RuneCountInString(content)

	m := types.EstimatedMetrics{
		WordCount:           len(words),
		CharacterCount:      chars,
		SentenceCount:       countSentences(content),
		HashtagCount:        countHashtags(words),
		LengthCategory:      lengthCategory(len(words)),
		EngagementPotential: engagementPotential(score),
		PlatformFit:         platformFit(chars, platform),
		QualityScore:        score,
	}
	if len(words) > 0 {
		m.ReadingTimeSeconds = int(math.Ceil(float64(len(words)) * 60 / wordsPerMinute))
	}
	return m
}

func countSentences(content string) int {
	count := 0
	inTerminator := false
	for _, r := range content {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				count++
			}
			inTerminator = true
		default:
			inTerminator = false
		}
	}
	if count == 0 && strings.TrimSpace(content) != "" {
		return 1
	}
	return count
}

func countHashtags(words []string) int {
	n := 0
	for _, w := range words {
		if len(w) > 1 && w[0] == '#' {
			n++
		}
	}
	return n
}

func lengthCategory(words int) string {
	switch {
	case words < 50:
		return "short"
	case words < 300:
		return "medium"
	default:
		return "long"
	}
}

func engagementPotential(score float64) string {
	switch {
	case score >= 8:
		return "high"
	case score >= 6:
		return "medium"
	default:
		return "low"
	}
}

func platformFit(chars int, platform string) string {
	limit, ok := platformCharLimits[platform]
	if !ok {
		return "not_applicable"
	}
	if chars <= limit {
		return "within_limit"
	}
	return "exceeds_limit"
}
