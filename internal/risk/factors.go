package risk

import (
	"math"
	"time"

	"github.com/siterisk/backend/internal/model"
)

// Score cut points shared by factor and composite scores.
const (
	healthyMaxScore = 25
	warningMaxScore = 60
)

// Units of FactorResult.Value.
const (
	UnitRatio     = "ratio"
	UnitVariance  = "variance"
	UnitExposure  = "exposure"
	UnitDaysSince = "days_since"
	UnitCount     = "count"
)

// ScoreOf maps value onto 0-100: 0 at or below t.Healthy, 100 at or above
// t.Critical, linear in between. t.Warning is not a breakpoint of the curve;
// it only selects label wording.
func ScoreOf(value float64, t model.Threshold) float64 {
	if value <= t.Healthy {
		return 0
	}
	if value >= t.Critical {
		return 100
	}
	return (value - t.Healthy) / (t.Critical - t.Healthy) * 100
}

// StatusForScore buckets a 0-100 score.
func StatusForScore(score float64) model.Status {
	switch {
	case score <= healthyMaxScore:
		return model.StatusHealthy
	case score <= warningMaxScore:
		return model.StatusWarning
	default:
		return model.StatusCritical
	}
}

// band is the region of a threshold a raw value falls into.
type band int

const (
	bandHealthy band = iota
	bandWarning
	bandElevated
	bandCritical
)

func bandOf(value float64, t model.Threshold) band {
	switch {
	case value <= t.Healthy:
		return bandHealthy
	case value <= t.Warning:
		return bandWarning
	case value <= t.Critical:
		return bandElevated
	default:
		return bandCritical
	}
}

func scored(value float64, t model.Threshold, unit, label string) model.FactorResult {
	score := ScoreOf(value, t)
	v := value
	return model.FactorResult{
		Score:  score,
		Status: StatusForScore(score),
		Label:  label,
		Value:  &v,
		Unit:   unit,
	}
}

func insufficient(unit, label string) model.FactorResult {
	return model.FactorResult{Score: 0, Status: model.StatusHealthy, Label: label, Unit: unit}
}

// BudgetFactor scores costs against earned revenue.
func BudgetFactor(totalCosts, earnedRevenue float64, t model.Threshold) model.FactorResult {
	if earnedRevenue <= 0 || !finite(earnedRevenue) || !finite(totalCosts) {
		return insufficient(UnitRatio, "No revenue yet")
	}
	ratio := totalCosts / earnedRevenue
	pct := formatPercent(ratio)

	var label string
	switch bandOf(ratio, t) {
	case bandHealthy:
		label = "Costs at " + pct + " of revenue, healthy margin"
	case bandWarning:
		label = "Costs at " + pct + " of revenue"
	case bandElevated:
		label = "Costs at " + pct + " of revenue, margin thinning"
	default:
		label = "Costs at " + pct + " of revenue, margin at risk"
	}
	return scored(ratio, t, UnitRatio, label)
}

// ScheduleFactor scores how far actual progress trails expected progress.
// Being ahead of schedule is never penalized.
func ScheduleFactor(actualProgress, expectedProgress float64, t model.Threshold) model.FactorResult {
	if expectedProgress <= 0 || !finite(expectedProgress) || !finite(actualProgress) {
		return insufficient(UnitVariance, "No schedule baseline")
	}
	variance := math.Max(0, (expectedProgress-actualProgress)/expectedProgress)
	if variance == 0 {
		return scored(0, t, UnitVariance, "On or ahead of schedule")
	}
	pct := formatPercent(variance)

	var label string
	switch bandOf(variance, t) {
	case bandHealthy:
		label = pct + " behind plan, within tolerance"
	case bandWarning:
		label = pct + " behind plan"
	case bandElevated:
		label = pct + " behind plan, slipping"
	default:
		label = pct + " behind plan, significant delay"
	}
	return scored(variance, t, UnitVariance, label)
}

// CORExposureFactor scores pending change order value against the contract.
func CORExposureFactor(pendingCORValue, contractValue float64, t model.Threshold) model.FactorResult {
	if contractValue <= 0 || !finite(contractValue) || !finite(pendingCORValue) {
		return insufficient(UnitExposure, "No contract value")
	}
	exposure := pendingCORValue / contractValue
	if pendingCORValue <= 0 {
		return scored(exposure, t, UnitExposure, "No pending CORs")
	}
	label := formatDollars(pendingCORValue) + " pending (" + formatPercent(exposure) + " of contract)"
	switch bandOf(exposure, t) {
	case bandElevated:
		label += ", review exposure"
	case bandCritical:
		label += ", high exposure"
	}
	return scored(exposure, t, UnitExposure, label)
}

// ActivityFactor scores whole days since the last daily report. A project
// with no reports at all is critical.
func ActivityFactor(lastReportDate *time.Time, now time.Time, t model.Threshold) model.FactorResult {
	if lastReportDate == nil || lastReportDate.IsZero() {
		return model.FactorResult{
			Score:  100,
			Status: model.StatusCritical,
			Label:  "No reports filed",
			Unit:   UnitDaysSince,
		}
	}
	days := int(math.Floor(now.Sub(*lastReportDate).Hours() / 24))
	if days < 0 {
		days = 0
	}

	var label string
	switch bandOf(float64(days), t) {
	case bandHealthy:
		if days == 0 {
			label = "Report filed today"
		} else {
			label = "Last report " + plural(days, "day", "days") + " ago"
		}
	case bandWarning:
		label = "Last report " + plural(days, "day", "days") + " ago"
	case bandElevated:
		label = "No report in " + plural(days, "day", "days")
	default:
		label = "No report in " + plural(days, "day", "days") + ", site activity unknown"
	}
	return scored(float64(days), t, UnitDaysSince, label)
}

// SafetyFactor scores the recent injury count.
func SafetyFactor(recentInjuryCount int, t model.Threshold) model.FactorResult {
	count := recentInjuryCount
	if count < 0 {
		count = 0
	}

	var label string
	switch bandOf(float64(count), t) {
	case bandHealthy:
		if count == 0 {
			label = "No recent injuries"
		} else {
			label = plural(count, "recent injury", "recent injuries") + ", within tolerance"
		}
	case bandWarning:
		label = plural(count, "recent injury", "recent injuries")
	default:
		label = plural(count, "recent injury", "recent injuries") + ", review safety program"
	}
	return scored(float64(count), t, UnitCount, label)
}
