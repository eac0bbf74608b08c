// Package risk turns project snapshots into composite health scores, alerts
// and cost/schedule projections.
//
// Everything here is pure computation: no I/O, no shared mutable state. An
// Engine is immutable after construction and safe for concurrent use.
package risk

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/siterisk/backend/internal/model"
)

// Composite summary labels.
const (
	LabelOnTrack   = "Project is on track"
	LabelAttention = "Some factors need attention"
	LabelReview    = "Immediate review recommended"
)

// Engine scores snapshots with a fixed threshold set, weighting and clock.
type Engine struct {
	clock       Clock
	thresholds  model.ThresholdSet
	weights     model.Weights
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine) error

// WithClock sets the clock used for days-since-report and projections.
func WithClock(c Clock) Option {
	return func(e *Engine) error {
		if c != nil {
			e.clock = c
		}
		return nil
	}
}

// WithThresholds merges category overrides onto the default thresholds.
// Ordering is not validated here.
func WithThresholds(overrides model.ThresholdOverrides) Option {
	return func(e *Engine) error {
		e.thresholds = MergeThresholds(overrides)
		return nil
	}
}

// WithWeights merges weight overrides onto the defaults and normalizes them.
func WithWeights(overrides model.WeightOverrides) Option {
	return func(e *Engine) error {
		w, err := MergeWeights(overrides)
		if err != nil {
			return err
		}
		e.weights = w
		return nil
	}
}

// WithSettings applies a stored thresholds and weights pair.
func WithSettings(s *model.RiskSettings) Option {
	return func(e *Engine) error {
		if s == nil {
			return nil
		}
		if err := WithThresholds(s.Thresholds.Overrides())(e); err != nil {
			return err
		}
		return WithWeights(WeightOverridesOf(s.Weights))(e)
	}
}

// WithConcurrency bounds the number of projects scored in parallel by
// AnalyzePortfolio. Values below 1 mean GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(e *Engine) error {
		e.concurrency = n
		return nil
	}
}

// NewEngine returns an engine with default thresholds, default weights and the
// system clock, adjusted by opts.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		clock:      SystemClock{},
		thresholds: DefaultThresholds(),
		weights:    DefaultWeights(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("risk engine: %w", err)
		}
	}
	if e.concurrency < 1 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}
	return e, nil
}

// Thresholds returns the effective threshold set.
func (e *Engine) Thresholds() model.ThresholdSet { return e.thresholds }

// Weights returns the effective weights.
func (e *Engine) Weights() model.Weights { return e.weights }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// CalculateRiskScore computes all five factors and combines them into a
// weighted composite. A nil snapshot is scored as an empty one.
func (e *Engine) CalculateRiskScore(s *model.ProjectSnapshot) model.RiskScoreResult {
	if s == nil {
		s = &model.ProjectSnapshot{}
	}
	t := e.thresholds
	factors := map[model.Category]model.FactorResult{
		model.CategoryBudget:      BudgetFactor(s.TotalCosts, s.EarnedRevenue, t.Budget),
		model.CategorySchedule:    ScheduleFactor(s.ActualProgress, s.ExpectedProgress, t.Schedule),
		model.CategoryCORExposure: CORExposureFactor(s.PendingCORValue, s.ContractValue, t.CORExposure),
		model.CategoryActivity:    ActivityFactor(s.LastReportDate, e.clock.Now(), t.Activity),
		model.CategorySafety:      SafetyFactor(s.RecentInjuryCount, t.Safety),
	}

	var sum float64
	for _, c := range model.Categories {
		f := factors[c]
		f.Weight = e.weights.Get(c)
		factors[c] = f
		sum += f.Score * f.Weight
	}

	score := int(math.Round(sum))
	score = max(0, min(100, score))
	status := StatusForScore(float64(score))

	return model.RiskScoreResult{
		Score:   score,
		Status:  status,
		Label:   summaryLabel(status),
		Factors: factors,
	}
}

func summaryLabel(s model.Status) string {
	switch s {
	case model.StatusHealthy:
		return LabelOnTrack
	case model.StatusWarning:
		return LabelAttention
	default:
		return LabelReview
	}
}

// CalculateRiskScore scores one snapshot with optional overrides. A nil clock
// means the system clock.
func CalculateRiskScore(
	s *model.ProjectSnapshot,
	thresholds model.ThresholdOverrides,
	weights model.WeightOverrides,
	clock Clock,
) (model.RiskScoreResult, error) {
	e, err := NewEngine(WithClock(clock), WithThresholds(thresholds), WithWeights(weights))
	if err != nil {
		return model.RiskScoreResult{}, err
	}
	return e.CalculateRiskScore(s), nil
}

// Evaluate runs scoring, alert generation and projections for one project.
func (e *Engine) Evaluate(s *model.ProjectSnapshot) model.ProjectRisk {
	if s == nil {
		s = &model.ProjectSnapshot{}
	}
	result := e.CalculateRiskScore(s)
	alerts := GenerateSmartAlerts(result, s)
	if alerts == nil {
		alerts = []model.Alert{}
	}
	return model.ProjectRisk{
		ProjectID:   s.ID,
		ProjectName: s.Name,
		RiskScore:   result.Score,
		RiskStatus:  result.Status,
		RiskLabel:   result.Label,
		Factors:     result.Factors,
		Alerts:      alerts,
		Projections: e.CalculateProjections(s),
	}
}
