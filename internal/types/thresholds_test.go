package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		t       Thresholds
		wantErr string
	}{
		{name: "defaults", t: DefaultThresholds()},
		{name: "equal cutoffs", t: Thresholds{Full: 8, Targeted: 8}},
		{name: "full below scale", t: Thresholds{Full: 0.5, Targeted: 8}, wantErr: "fullOptimizationThreshold"},
		{name: "targeted above scale", t: Thresholds{Full: 7, Targeted: 11}, wantErr: "targetedOptimizationThreshold"},
		{name: "inverted", t: Thresholds{Full: 9, Targeted: 8}, wantErr: "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestThresholdsUpdate_Apply(t *testing.T) {
	full := 6.0
	updated := ThresholdsUpdate{Full: &full}.Apply(DefaultThresholds())
	assert.Equal(t, Thresholds{Full: 6.0, Targeted: 8.5}, updated)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 1.0, ClampScore(-3))
	assert.Equal(t, 1.0, ClampScore(0))
	assert.Equal(t, 7.5, ClampScore(7.5))
	assert.Equal(t, 10.0, ClampScore(42))
	assert.Equal(t, 1.0, ClampScore(math.NaN()))
	assert.Equal(t, 1.0, ClampScore(math.Inf(-1)))
	assert.Equal(t, 10.0, ClampScore(math.Inf(1)))
}

func TestThresholds_Validate_NonFinite(t *testing.T) {
	tests := []struct {
		name  string
		t     Thresholds
		field string
	}{
		{"NaN full", Thresholds{Full: math.NaN(), Targeted: 8.5}, "fullOptimizationThreshold"},
		{"NaN targeted", Thresholds{Full: 7, Targeted: math.NaN()}, "targetedOptimizationThreshold"},
		{"infinite targeted", Thresholds{Full: 7, Targeted: math.Inf(1)}, "targetedOptimizationThreshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			var verr *ErrValidation
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, tt.field, verr.Field)
			}
		})
	}
}
