package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/siterisk/backend/internal/model"
)

func TestDefaultWeights_SumToOne(t *testing.T) {
	if got := DefaultWeights().Sum(); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected default weights to sum to 1, got %v", got)
	}
}

func TestValidateThresholds_DefaultsAndPresetsAreValid(t *testing.T) {
	if err := ValidateThresholds(DefaultThresholds()); err != nil {
		t.Errorf("defaults: unexpected error: %v", err)
	}
	for _, key := range PresetKeys {
		p, ok := Preset(key)
		if !ok {
			t.Fatalf("preset %q missing", key)
		}
		if err := ValidateThresholds(p); err != nil {
			t.Errorf("preset %q: unexpected error: %v", key, err)
		}
	}
}

func TestValidateThresholds_ReportsFirstBadCategory(t *testing.T) {
	tests := []struct {
		name string
		set  model.ThresholdSet
		want model.Category
	}{
		{
			name: "healthy above warning",
			set:  DefaultThresholds().With(model.CategorySchedule, model.Threshold{Healthy: 0.2, Warning: 0.1, Critical: 0.3}),
			want: model.CategorySchedule,
		},
		{
			name: "warning above critical",
			set:  DefaultThresholds().With(model.CategorySafety, model.Threshold{Healthy: 0, Warning: 3, Critical: 2}),
			want: model.CategorySafety,
		},
		{
			name: "two bad categories reports the first",
			set: DefaultThresholds().
				With(model.CategoryActivity, model.Threshold{Healthy: 5, Warning: 3, Critical: 1}).
				With(model.CategoryBudget, model.Threshold{Healthy: 0.9, Warning: 0.8, Critical: 0.7}),
			want: model.CategoryBudget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThresholds(tt.set)
			var orderErr *ThresholdOrderError
			if !errors.As(err, &orderErr) {
				t.Fatalf("expected ThresholdOrderError, got %v", err)
			}
			if orderErr.Category != tt.want {
				t.Errorf("expected category %q, got %q", tt.want, orderErr.Category)
			}
		})
	}
}

func TestValidateThresholds_EqualBoundariesAllowed(t *testing.T) {
	set := DefaultThresholds().With(model.CategorySafety, model.Threshold{Healthy: 1, Warning: 1, Critical: 1})
	if err := ValidateThresholds(set); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDetectPreset(t *testing.T) {
	for _, key := range PresetKeys {
		p, _ := Preset(key)
		got, ok := DetectPreset(p)
		if !ok || got != key {
			t.Errorf("expected %q, got %q (ok=%v)", key, got, ok)
		}
	}

	if got, ok := DetectPreset(DefaultThresholds()); !ok || got != PresetBalanced {
		t.Errorf("expected defaults to detect as balanced, got %q", got)
	}

	custom := DefaultThresholds().With(model.CategoryActivity, model.Threshold{Healthy: 1, Warning: 3, Critical: 6})
	if got, ok := DetectPreset(custom); ok {
		t.Errorf("expected custom set, got %q", got)
	}
}

func TestDetectPreset_MergeRoundTrip(t *testing.T) {
	conservative, _ := Preset(PresetConservative)
	got, ok := DetectPreset(MergeThresholds(conservative.Overrides()))
	if !ok || got != PresetConservative {
		t.Errorf("expected conservative, got %q (ok=%v)", got, ok)
	}
}

func TestMergeThresholds_CategoryGranularity(t *testing.T) {
	override := model.Threshold{Healthy: 0.5, Warning: 0.6, Critical: 0.7}
	got := MergeThresholds(model.ThresholdOverrides{model.CategoryBudget: override})

	if got.Budget != override {
		t.Errorf("expected budget override %+v, got %+v", override, got.Budget)
	}
	def := DefaultThresholds()
	if got.Schedule != def.Schedule || got.CORExposure != def.CORExposure ||
		got.Activity != def.Activity || got.Safety != def.Safety {
		t.Errorf("expected untouched categories to keep defaults, got %+v", got)
	}
}

func TestMergeThresholds_IgnoresUnknownCategory(t *testing.T) {
	got := MergeThresholds(model.ThresholdOverrides{"weather": {Healthy: 1, Warning: 2, Critical: 3}})
	if got != DefaultThresholds() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestMergeWeights_NoOverridesReturnsDefaults(t *testing.T) {
	got, err := MergeWeights(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultWeights() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestMergeWeights_PartialOverrideIsNormalized(t *testing.T) {
	got, err := MergeWeights(model.WeightOverrides{model.CategorySafety: 0.60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.Sum()-1) > 1e-9 {
		t.Errorf("expected weights to sum to 1, got %v", got.Sum())
	}
	// 0.60 / 1.50
	if math.Abs(got.Safety-0.4) > 1e-9 {
		t.Errorf("expected safety=0.4, got %v", got.Safety)
	}
	if math.Abs(got.Budget-0.2) > 1e-9 {
		t.Errorf("expected budget=0.2, got %v", got.Budget)
	}
}

func TestMergeWeights_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides model.WeightOverrides
	}{
		{"negative", model.WeightOverrides{model.CategoryBudget: -0.1}},
		{"nan", model.WeightOverrides{model.CategoryBudget: math.NaN()}},
		{"unknown category", model.WeightOverrides{"weather": 0.1}},
		{"all zero", model.WeightOverrides{
			model.CategoryBudget: 0, model.CategorySchedule: 0, model.CategoryCORExposure: 0,
			model.CategoryActivity: 0, model.CategorySafety: 0,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeWeights(tt.overrides)
			if !errors.Is(err, ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got %v", err)
			}
		})
	}
}
