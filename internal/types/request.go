// Package types provides type definitions for structured data used throughout the content agent.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Defaults applied to optional request fields.
const (
	DefaultPlatform         = "general"
	DefaultTargetAudience   = "general audience"
	DefaultLengthPreference = "medium"
)

// GenerationRequest describes the marketing content a caller wants generated.
// Field limits mirror the backend DTO that forwards requests to this service.
type GenerationRequest struct {
	ContentType       string   `json:"contentType" validate:"required,max=50"`
	BrandVoice        string   `json:"brandVoice" validate:"required,max=50"`
	Topic             string   `json:"topic" validate:"required,max=500"`
	Platform          string   `json:"platform,omitempty" validate:"max=50"`
	TargetAudience    string   `json:"targetAudience,omitempty" validate:"max=200"`
	KeyMessages       []string `json:"keyMessages,omitempty" validate:"max=10,dive,max=100"`
	BrandGuidelines   string   `json:"brandGuidelines,omitempty"`
	AdditionalContext string   `json:"additionalContext,omitempty" validate:"max=500"`
	LengthPreference  string   `json:"lengthPreference,omitempty" validate:"max=20"`
	IncludeHashtags   *bool    `json:"includeHashtags,omitempty"`
	CallToAction      string   `json:"callToAction,omitempty" validate:"max=200"`
}

// Normalize trims whitespace so that blank values count as missing.
func (r *GenerationRequest) Normalize() {
	r.ContentType = strings.TrimSpace(r.ContentType)
	r.BrandVoice = strings.TrimSpace(r.BrandVoice)
	r.Topic = strings.TrimSpace(r.Topic)
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
	r.TargetAudience = strings.TrimSpace(r.TargetAudience)
	r.BrandGuidelines = strings.TrimSpace(r.BrandGuidelines)
	r.AdditionalContext = strings.TrimSpace(r.AdditionalContext)
	r.LengthPreference = strings.ToLower(strings.TrimSpace(r.LengthPreference))
	r.CallToAction = strings.TrimSpace(r.CallToAction)

	messages := make([]string, 0, len(r.KeyMessages))
	for _, m := range r.KeyMessages {
		if m = strings.TrimSpace(m); m != "" {
			messages = append(messages, m)
		}
	}
	r.KeyMessages = messages
}

// ApplyDefaults fills optional fields that drive prompt construction.
func (r *GenerationRequest) ApplyDefaults() {
	if r.Platform == "" {
		r.Platform = DefaultPlatform
	}
	if r.TargetAudience == "" {
		r.TargetAudience = DefaultTargetAudience
	}
	if r.LengthPreference == "" {
		r.LengthPreference = DefaultLengthPreference
	}
}

// WantsHashtags reports whether the caller explicitly asked for hashtags.
func (r *GenerationRequest) WantsHashtags() bool {
	return r.IncludeHashtags != nil && *r.IncludeHashtags
}

// Validate checks presence of the required fields and the size limits.
// Missing or blank required fields are reported as *ErrMissingFields.
func (r *GenerationRequest) Validate() error {
	if missing := MissingFields(r); len(missing) > 0 {
		return &ErrMissingFields{Fields: missing}
	}
	return validateStruct(r)
}

// EvaluateRequest is the body of a standalone evaluation call.
type EvaluateRequest struct {
	Content        string   `json:"content" validate:"required"`
	ContentType    string   `json:"contentType,omitempty"`
	BrandVoice     string   `json:"brandVoice,omitempty"`
	Platform       string   `json:"platform,omitempty"`
	TargetAudience string   `json:"targetAudience,omitempty"`
	KeyMessages    []string `json:"keyMessages,omitempty"`
}

// Validate checks that content is present.
func (r *EvaluateRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	return validateStruct(r)
}

// LoopRequest is the body of the feedback-loop service.
type LoopRequest struct {
	Topic         string `json:"topic" validate:"required"`
	MaxIterations int    `json:"max_iterations,omitempty" validate:"omitempty,min=1,max=10"`
}

// DefaultMaxIterations is used when a loop request omits max_iterations.
const DefaultMaxIterations = 3

// Validate checks the loop request and applies the iteration default.
func (r *LoopRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.MaxIterations == 0 {
		r.MaxIterations = DefaultMaxIterations
	}
	return nil
}

// RequiredFields are the JSON names of the fields every generation request carries.
var RequiredFields = []string{"contentType", "brandVoice", "topic"}

// MissingFields returns the required fields that are absent or blank, in
// RequiredFields order.
func MissingFields(req *GenerationRequest) []string {
	values := []string{req.ContentType, req.BrandVoice, req.Topic}
	var missing []string
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, RequiredFields[i])
		}
	}
	return missing
}

// ValidateRequest normalizes req in place and validates it.
func ValidateRequest(req *GenerationRequest) error {
	req.Normalize()
	return req.Validate()
}
