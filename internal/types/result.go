package types

import "time"

// OptimizationType names the branch taken by the optimization ladder.
type OptimizationType string

// Optimization strategies.
const (
	OptimizationNone     OptimizationType = "none"
	OptimizationFull     OptimizationType = "full"
	OptimizationTargeted OptimizationType = "targeted"
)

// GenerationResult is the response payload of a content generation.
type GenerationResult struct {
	TaskID                string               `json:"taskId"`
	Content               string               `json:"content"`
	ContentType           string               `json:"contentType"`
	Platform              string               `json:"platform"`
	BrandVoice            string               `json:"brandVoice"`
	TargetAudience        string               `json:"targetAudience"`
	GenerationTimeSeconds float64              `json:"generationTimeSeconds"`
	WorkflowInfo          WorkflowInfo         `json:"workflowInfo"`
	Evaluation            Evaluation           `json:"evaluation"`
	Metadata              Metadata             `json:"metadata"`
	OptimizationPerformed bool                 `json:"optimizationPerformed"`
	Suggestions           []string             `json:"suggestions"`
	EstimatedMetrics      EstimatedMetrics     `json:"estimatedMetrics"`
	ModelUsed             string               `json:"modelUsed"`
	GeneratedAt           time.Time            `json:"generatedAt"`
	OptimizationDetails   *OptimizationDetails `json:"optimizationDetails,omitempty"`
}

// WorkflowInfo records which workflow steps ran.
type WorkflowInfo struct {
	InitialGenerationCompleted bool             `json:"initialGenerationCompleted"`
	EvaluationPerformed        bool             `json:"evaluationPerformed"`
	EvaluationFallback         bool             `json:"evaluationFallback"`
	EvaluationScore            float64          `json:"evaluationScore"`
	OptimizationPerformed      bool             `json:"optimizationPerformed"`
	OptimizationType           OptimizationType `json:"optimizationType"`
	OptimizationIterations     int              `json:"optimizationIterations"`
	OptimizationError          string           `json:"optimizationError,omitempty"`
	ModelUsed                  string           `json:"modelUsed"`
}

// Metadata echoes request attributes that shaped the generation.
type Metadata struct {
	ModelUsed           string     `json:"modelUsed"`
	TargetAudience      string     `json:"targetAudience"`
	KeyMessagesIncluded bool       `json:"keyMessagesIncluded"`
	KeyMessages         []string   `json:"keyMessages,omitempty"`
	LengthPreference    string     `json:"lengthPreference"`
	IncludeHashtags     bool       `json:"includeHashtags"`
	CallToAction        string     `json:"callToAction,omitempty"`
	Thresholds          Thresholds `json:"thresholds"`
}

// EstimatedMetrics are display heuristics derived from the final content.
type EstimatedMetrics struct {
	WordCount           int     `json:"wordCount"`
	CharacterCount      int     `json:"characterCount"`
	SentenceCount       int     `json:"sentenceCount"`
	HashtagCount        int     `json:"hashtagCount"`
	ReadingTimeSeconds  int     `json:"readingTimeSeconds"`
	LengthCategory      string  `json:"lengthCategory"`
	EngagementPotential string  `json:"engagementPotential"`
	PlatformFit         string  `json:"platformFit"`
	QualityScore        float64 `json:"qualityScore"`
}

// OptimizationDetails holds both content variants when a rewrite ran.
type OptimizationDetails struct {
	InitialContent        string               `json:"initialContent"`
	OptimizedContent      string               `json:"optimizedContent"`
	OptimizationType      OptimizationType     `json:"optimizationType"`
	OptimizationTime      float64              `json:"optimizationTime"`
	InitialGenerationTime float64              `json:"initialGenerationTime"`
	ImprovementReason     string               `json:"improvementReason"`
	EvaluationComparison  EvaluationComparison `json:"evaluationComparison"`
}

// EvaluationComparison contrasts the evaluations before and after a rewrite.
type EvaluationComparison struct {
	InitialScore        float64    `json:"initialScore"`
	OptimizedScore      float64    `json:"optimizedScore"`
	ScoreDifference     float64    `json:"scoreDifference"`
	InitialEvaluation   Evaluation `json:"initialEvaluation"`
	OptimizedEvaluation Evaluation `json:"optimizedEvaluation"`
}

// StreamStatus is the canned progress payload of the stream endpoint.
type StreamStatus struct {
	TaskID   string `json:"taskId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// LoopIteration is one evaluate step of the feedback loop.
type LoopIteration struct {
	Iteration  int    `json:"iteration"`
	Text       string `json:"text"`
	Evaluation string `json:"evaluation"`
	Approved   bool   `json:"approved"`
}

// LoopResult is the response of the feedback-loop service.
type LoopResult struct {
	FinalText  string          `json:"final_text"`
	Iterations []LoopIteration `json:"iterations"`
	Note       string          `json:"note,omitempty"`
}
