package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task is one stored generation.
type Task struct {
	ID                    uuid.UUID       `json:"id"`
	ContentType           string          `json:"contentType"`
	Platform              string          `json:"platform"`
	BrandVoice            string          `json:"brandVoice"`
	Topic                 string          `json:"topic"`
	Score                 float64         `json:"score"`
	OptimizationType      string          `json:"optimizationType"`
	OptimizationPerformed bool            `json:"optimizationPerformed"`
	GenerationSeconds     float64         `json:"generationSeconds"`
	Result                json.RawMessage `json:"result,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// Default and maximum page sizes for ListTasks.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
