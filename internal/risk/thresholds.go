package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/siterisk/backend/internal/model"
)

// PresetKey names a complete threshold set that can be applied as a unit.
type PresetKey string

const (
	PresetConservative PresetKey = "conservative"
	PresetBalanced     PresetKey = "balanced"
	PresetAggressive   PresetKey = "aggressive"
)

// PresetKeys lists the presets in display order.
var PresetKeys = []PresetKey{PresetConservative, PresetBalanced, PresetAggressive}

// ErrInvalidWeights is returned when weight overrides cannot produce a usable
// weighting.
var ErrInvalidWeights = errors.New("invalid weights")

// DefaultWeights returns the default factor weights. They sum to 1.0.
func DefaultWeights() model.Weights {
	return model.Weights{
		Budget:      0.30,
		Schedule:    0.25,
		CORExposure: 0.20,
		Activity:    0.15,
		Safety:      0.10,
	}
}

// DefaultThresholds returns the balanced threshold set.
//
// Budget is costs/revenue, schedule is the fraction behind plan, COR exposure
// is pending CORs/contract value, activity is days since the last daily report
// and safety is the recent injury count.
func DefaultThresholds() model.ThresholdSet {
	return model.ThresholdSet{
		Budget:      model.Threshold{Healthy: 0.60, Warning: 0.75, Critical: 0.85},
		Schedule:    model.Threshold{Healthy: 0.05, Warning: 0.15, Critical: 0.25},
		CORExposure: model.Threshold{Healthy: 0.05, Warning: 0.15, Critical: 0.25},
		Activity:    model.Threshold{Healthy: 1, Warning: 3, Critical: 5},
		Safety:      model.Threshold{Healthy: 0, Warning: 1, Critical: 2},
	}
}

// Preset returns the threshold set for key.
func Preset(key PresetKey) (model.ThresholdSet, bool) {
	switch key {
	case PresetConservative:
		return model.ThresholdSet{
			Budget:      model.Threshold{Healthy: 0.55, Warning: 0.70, Critical: 0.80},
			Schedule:    model.Threshold{Healthy: 0.03, Warning: 0.10, Critical: 0.20},
			CORExposure: model.Threshold{Healthy: 0.03, Warning: 0.10, Critical: 0.20},
			Activity:    model.Threshold{Healthy: 1, Warning: 2, Critical: 3},
			Safety:      model.Threshold{Healthy: 0, Warning: 1, Critical: 1},
		}, true
	case PresetBalanced:
		return DefaultThresholds(), true
	case PresetAggressive:
		return model.ThresholdSet{
			Budget:      model.Threshold{Healthy: 0.65, Warning: 0.80, Critical: 0.90},
			Schedule:    model.Threshold{Healthy: 0.08, Warning: 0.20, Critical: 0.30},
			CORExposure: model.Threshold{Healthy: 0.08, Warning: 0.20, Critical: 0.30},
			Activity:    model.Threshold{Healthy: 2, Warning: 5, Critical: 7},
			Safety:      model.Threshold{Healthy: 1, Warning: 2, Critical: 3},
		}, true
	}
	return model.ThresholdSet{}, false
}

// ThresholdOrderError reports the first category whose boundaries are out of
// order.
type ThresholdOrderError struct {
	Category  model.Category
	Threshold model.Threshold
}

func (e *ThresholdOrderError) Error() string {
	return fmt.Sprintf("%s thresholds out of order: healthy=%g warning=%g critical=%g",
		e.Category, e.Threshold.Healthy, e.Threshold.Warning, e.Threshold.Critical)
}

// ValidateThresholds checks healthy <= warning <= critical for every category
// in canonical order. The scorers never call this; it belongs on the path that
// accepts thresholds from users.
func ValidateThresholds(s model.ThresholdSet) error {
	for _, c := range model.Categories {
		t := s.Get(c)
		if t.Healthy > t.Warning || t.Warning > t.Critical {
			return &ThresholdOrderError{Category: c, Threshold: t}
		}
	}
	return nil
}

// DetectPreset returns the preset that s equals exactly, or false for a custom
// set.
func DetectPreset(s model.ThresholdSet) (PresetKey, bool) {
	for _, key := range PresetKeys {
		p, _ := Preset(key)
		if p == s {
			return key, true
		}
	}
	return "", false
}

// MergeThresholds replaces whole categories of the defaults with overrides.
// Unknown categories are ignored.
func MergeThresholds(overrides model.ThresholdOverrides) model.ThresholdSet {
	s := DefaultThresholds()
	for c, t := range overrides {
		if c.IsValid() {
			s = s.With(c, t)
		}
	}
	return s
}

// weightSumTolerance absorbs float noise so untouched defaults are returned
// exactly as declared.
const weightSumTolerance = 1e-9

// MergeWeights merges overrides onto the default weights and rescales the
// result so it sums to 1.0.
func MergeWeights(overrides model.WeightOverrides) (model.Weights, error) {
	w := DefaultWeights()
	for c, v := range overrides {
		if !c.IsValid() {
			return model.Weights{}, fmt.Errorf("%w: unknown category %q", ErrInvalidWeights, c)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Weights{}, fmt.Errorf("%w: %s weight %g", ErrInvalidWeights, c, v)
		}
		w = w.With(c, v)
	}
	sum := w.Sum()
	if sum <= 0 {
		return model.Weights{}, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	if math.Abs(sum-1) <= weightSumTolerance {
		return w, nil
	}
	for _, c := range model.Categories {
		w = w.With(c, w.Get(c)/sum)
	}
	return w, nil
}

// WeightOverridesOf expands w into a full override map.
func WeightOverridesOf(w model.Weights) model.WeightOverrides {
	out := make(model.WeightOverrides, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = w.Get(c)
	}
	return out
}
