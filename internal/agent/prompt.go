package agent

import (
	"fmt"
	"strings"

	"github.com/jonathan/marketing-agent/internal/prompts"
	"github.com/jonathan/marketing-agent/internal/types"
)

// platformGuidelines are appended for platforms with known conventions.
var platformGuidelines = map[string][]string{
	"twitter":   {"Keep under 280 characters", "Include relevant hashtags"},
	"x":         {"Keep under 280 characters", "Include relevant hashtags"},
	"linkedin":  {"Professional tone", "Include a call-to-action", "Ask an engaging question"},
	"instagram": {"Visual-focused copy", "Include relevant hashtags", "Encourage engagement"},
	"facebook":  {"Conversational tone", "Encourage comments and shares"},
}

// lengthGuidelines are appended for non-default length preferences.
var lengthGuidelines = map[string][]string{
	"short": {"Keep it brief and punchy", "Aim for fewer than 100 words"},
	"long":  {"Go into depth with supporting detail and examples", "Aim for 500 words or more"},
}

// BuildGenerationPrompt builds the drafting prompt. Optional sections are
// only added when the corresponding field is set.
func BuildGenerationPrompt(req *types.GenerationRequest) string {
	data := map[string]string{
		"ContentType":    req.ContentType,
		"Platform":       req.Platform,
		"Topic":          req.Topic,
		"BrandVoice":     req.BrandVoice,
		"TargetAudience": req.TargetAudience,
	}

	instructionKey := "instruction-" + req.ContentType
	if !prompts.Has(prompts.ContentFile, instructionKey) {
		instructionKey = "instruction-default"
	}
	data["Instruction"] = prompts.Render(prompts.ContentFile, instructionKey, data)

	var sb strings.Builder
	sb.WriteString(prompts.Render(prompts.ContentFile, "generate-header", data))

	if len(req.KeyMessages) > 0 {
		fmt.Fprintf(&sb, "\nKEY MESSAGES TO INCLUDE: %s", strings.Join(req.KeyMessages, ", "))
	}
	if req.CallToAction != "" {
		fmt.Fprintf(&sb, "\nCALL TO ACTION: %s", req.CallToAction)
	}
	if req.BrandGuidelines != "" {
		fmt.Fprintf(&sb, "\n\nBRAND GUIDELINES:\n%s", req.BrandGuidelines)
	}
	if req.AdditionalContext != "" {
		fmt.Fprintf(&sb, "\n\nADDITIONAL CONTEXT:\n%s", req.AdditionalContext)
	}

	if bullets := formattingBullets(req); len(bullets) > 0 {
		sb.WriteString("\n")
		for _, b := range bullets {
			sb.WriteString("\n- ")
			sb.WriteString(b)
		}
	}

	sb.WriteString(prompts.Render(prompts.ContentFile, "generate-footer", data))
	return sb.String()
}

// formattingBullets combines platform, hashtag and length guidance.
// An explicit includeHashtags=false removes platform hashtag advice.
func formattingBullets(req *types.GenerationRequest) []string {
	var bullets []string
	noHashtags := req.IncludeHashtags != nil && !*req.IncludeHashtags

	platformMentionsHashtags := false
	for _, b := range platformGuidelines[req.Platform] {
		if strings.Contains(b, "hashtags") {
			if noHashtags {
				continue
			}
			platformMentionsHashtags = true
		}
		bullets = append(bullets, b)
	}

	switch {
	case noHashtags:
		bullets = append(bullets, "Do not include hashtags")
	case req.WantsHashtags() && !platformMentionsHashtags:
		bullets = append(bullets, "Include 2-4 relevant hashtags")
	}

	bullets = append(bullets, lengthGuidelines[req.LengthPreference]...)
	return bullets
}

// BuildEvaluationPrompt builds the prompt asking the model to grade content
// in the labeled format the evaluation parser reads.
func BuildEvaluationPrompt(content string, ec types.EvaluationContext) string {
	keyMessages := "None specified"
	if len(ec.KeyMessages) > 0 {
		keyMessages = strings.Join(ec.KeyMessages, ", ")
	}
	return prompts.Render(prompts.ContentFile, "evaluate", map[string]string{
		"ContentType":    ec.ContentType,
		"Content":        content,
		"BrandVoice":     ec.BrandVoice,
		"Platform":       ec.Platform,
		"TargetAudience": ec.TargetAudience,
		"KeyMessages":    keyMessages,
	})
}

// BuildOptimizationPrompt builds the rewrite prompt for a full or targeted pass.
func BuildOptimizationPrompt(strategy types.OptimizationType, content string, ev types.Evaluation, req *types.GenerationRequest) string {
	strengths := "None noted"
	if len(ev.Strengths) > 0 {
		strengths = strings.Join(ev.Strengths, "; ")
	}
	guidance := ev.OptimizationGuidance
	if guidance == "" {
		guidance = "None provided"
	}

	var extra strings.Builder
	for _, b := range formattingBullets(req) {
		extra.WriteString("\n- ")
		extra.WriteString(b)
	}
	if len(req.KeyMessages) > 0 {
		fmt.Fprintf(&extra, "\n- Keep these key messages: %s", strings.Join(req.KeyMessages, ", "))
	}

	data := map[string]string{
		"ContentType":    req.ContentType,
		"Score":          fmt.Sprintf("%g", ev.Score),
		"Content":        content,
		"Topic":          req.Topic,
		"BrandVoice":     req.BrandVoice,
		"Platform":       req.Platform,
		"TargetAudience": req.TargetAudience,
		"Strengths":      strengths,
		"Guidance":       guidance,
		"Extra":          extra.String(),
	}

	if strategy == types.OptimizationTargeted {
		items := make([]string, 0, len(ev.Improvements))
		for i, imp := range ev.Improvements {
			items = append(items, fmt.Sprintf("%d. %s", i+1, imp))
		}
		data["Improvements"] = strings.Join(items, "\n")
		return prompts.Render(prompts.ContentFile, "optimize-targeted", data)
	}

	improvements := "General quality improvements"
	if len(ev.Improvements) > 0 {
		improvements = strings.Join(ev.Improvements, "; ")
	}
	data["Improvements"] = improvements
	return prompts.Render(prompts.ContentFile, "optimize-full", data)
}

// BuildFullOptimizationPrompt builds the prompt for a complete rewrite.
func BuildFullOptimizationPrompt(content string, ev types.Evaluation, req *types.GenerationRequest) string {
	return BuildOptimizationPrompt(types.OptimizationFull, content, ev, req)
}

// BuildTargetedOptimizationPrompt builds the prompt for an edit scoped to
// the listed improvements.
func BuildTargetedOptimizationPrompt(content string, ev types.Evaluation, req *types.GenerationRequest) string {
	return BuildOptimizationPrompt(types.OptimizationTargeted, content, ev, req)
}
