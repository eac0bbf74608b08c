package risk

import (
	"math"
	"time"

	"github.com/siterisk/backend/internal/model"
)

const day = 24 * time.Hour

// maxForecastDays bounds the completion date forecast at 10,000 years.
// Slower burn rates produce no date.
const maxForecastDays = 3_652_425

// CalculateProjections extrapolates final cost, final margin and completion
// date linearly from the current burn rate. It works from a single snapshot,
// so early-stage projects produce noisy forecasts.
func (e *Engine) CalculateProjections(s *model.ProjectSnapshot) model.ProjectionResult {
	if s == nil || s.ActualProgress <= 0 || !finite(s.ActualProgress) || !finite(s.TotalCosts) {
		return model.ProjectionResult{}
	}

	costPerPercent := s.TotalCosts / s.ActualProgress
	completionCost := math.Round(costPerPercent * 100)

	var margin float64
	if s.ContractValue > 0 {
		margin = (s.ContractValue - completionCost) / s.ContractValue * 100
	}

	out := model.ProjectionResult{
		EstimatedCompletionCost: &completionCost,
		EstimatedFinalMargin:    &margin,
		CostPerPercent:          &costPerPercent,
	}

	if s.StartDate != nil && !s.StartDate.IsZero() && s.ActualProgress < 100 {
		now := e.clock.Now()
		daysElapsed := math.Max(1, float64(now.Sub(*s.StartDate))/float64(day))
		progressPerDay := s.ActualProgress / daysElapsed
		daysRemaining := (100 - s.ActualProgress) / progressPerDay
		if date, ok := addDays(now, daysRemaining); ok {
			out.EstimatedCompletionDate = &date
		}
	}
	return out
}

// addDays adds whole calendar days with AddDate and only the fractional
// remainder as a Duration, so long forecasts never overflow int64 nanoseconds.
func addDays(t time.Time, days float64) (time.Time, bool) {
	if !finite(days) || days < 0 || days > maxForecastDays {
		return time.Time{}, false
	}
	whole := math.Floor(days)
	frac := time.Duration((days - whole) * float64(day))
	return t.AddDate(0, 0, int(whole)).Add(frac), true
}
