package model

// Category identifies one of the five scored risk factors.
type Category string

const (
	CategoryBudget      Category = "budget"
	CategorySchedule    Category = "schedule"
	CategoryCORExposure Category = "cor_exposure"
	CategoryActivity    Category = "activity"
	CategorySafety      Category = "safety"
)

// Categories lists every category in canonical order. Validation and alert
// generation walk categories in this order.
var Categories = []Category{
	CategoryBudget,
	CategorySchedule,
	CategoryCORExposure,
	CategoryActivity,
	CategorySafety,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBudget, CategorySchedule, CategoryCORExposure, CategoryActivity, CategorySafety:
		return true
	default:
		return false
	}
}

// Threshold holds the boundaries of one factor in the factor's native unit
// (ratio, day count or incident count). Healthy <= Warning <= Critical.
type Threshold struct {
	Healthy  float64 `json:"healthy" yaml:"healthy" validate:"gte=0"`
	Warning  float64 `json:"warning" yaml:"warning" validate:"gte=0"`
	Critical float64 `json:"critical" yaml:"critical" validate:"gte=0"`
}

// ThresholdSet holds a complete set of boundaries, one per category.
type ThresholdSet struct {
	Budget      Threshold `json:"budget" yaml:"budget"`
	Schedule    Threshold `json:"schedule" yaml:"schedule"`
	CORExposure Threshold `json:"cor_exposure" yaml:"cor_exposure"`
	Activity    Threshold `json:"activity" yaml:"activity"`
	Safety      Threshold `json:"safety" yaml:"safety"`
}

// Get returns the threshold for c. Unknown categories yield the zero value.
func (s ThresholdSet) Get(c Category) Threshold {
	switch c {
	case CategoryBudget:
		return s.Budget
	case CategorySchedule:
		return s.Schedule
	case CategoryCORExposure:
		return s.CORExposure
	case CategoryActivity:
		return s.Activity
	case CategorySafety:
		return s.Safety
	}
	return Threshold{}
}

// With returns a copy of s with the threshold for c replaced.
func (s ThresholdSet) With(c Category, t Threshold) ThresholdSet {
	switch c {
	case CategoryBudget:
		s.Budget = t
	case CategorySchedule:
		s.Schedule = t
	case CategoryCORExposure:
		s.CORExposure = t
	case CategoryActivity:
		s.Activity = t
	case CategorySafety:
		s.Safety = t
	}
	return s
}

// Overrides expands s into a full per-category override map.
func (s ThresholdSet) Overrides() ThresholdOverrides {
	out := make(ThresholdOverrides, len(Categories))
	for _, c := range Categories {
		out[c] = s.Get(c)
	}
	return out
}

// ThresholdOverrides replaces whole categories of the default set.
type ThresholdOverrides map[Category]Threshold

// Weights holds the contribution of each factor to the composite score.
type Weights struct {
	Budget      float64 `json:"budget" yaml:"budget"`
	Schedule    float64 `json:"schedule" yaml:"schedule"`
	CORExposure float64 `json:"cor_exposure" yaml:"cor_exposure"`
	Activity    float64 `json:"activity" yaml:"activity"`
	Safety      float64 `json:"safety" yaml:"safety"`
}

// Get returns the weight for c.
func (w Weights) Get(c Category) float64 {
	switch c {
	case CategoryBudget:
		return w.Budget
	case CategorySchedule:
		return w.Schedule
	case CategoryCORExposure:
		return w.CORExposure
	case CategoryActivity:
		return w.Activity
	case CategorySafety:
		return w.Safety
	}
	return 0
}

// With returns a copy of w with the weight for c replaced.
func (w Weights) With(c Category, v float64) Weights {
	switch c {
	case CategoryBudget:
		w.Budget = v
	case CategorySchedule:
		w.Schedule = v
	case CategoryCORExposure:
		w.CORExposure = v
	case CategoryActivity:
		w.Activity = v
	case CategorySafety:
		w.Safety = v
	}
	return w
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Budget + w.Schedule + w.CORExposure + w.Activity + w.Safety
}

// WeightOverrides replaces individual weights of the default set.
type WeightOverrides map[Category]float64

// RiskSettings is what a threshold store persists per owner.
type RiskSettings struct {
	Thresholds ThresholdSet `json:"thresholds" yaml:"thresholds"`
	Weights    Weights      `json:"weights" yaml:"weights"`
	// Preset is the matching preset key, or "" for a custom set. Derived, not stored.
	Preset string `json:"preset" yaml:"-"`
}
