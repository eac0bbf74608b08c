package risk

import (
	"cmp"
	"slices"

	"github.com/siterisk/backend/internal/model"
)

// UnbilledWarningCents is the unbilled amount above which the unbilled-work
// alert is raised as a warning instead of info. Minor currency units: $5,000.
const UnbilledWarningCents int64 = 500000

// Alert titles.
const (
	TitleBudgetAlert    = "Budget Alert"
	TitleActivityAlert  = "Activity Alert"
	TitleSafetyAlert    = "Safety Alert"
	TitleBudgetWatch    = "Budget Watch"
	TitleScheduleAlert  = "Schedule Alert"
	TitleCORExposure    = "COR Exposure"
	TitleUnbilledWork   = "Unbilled Work"
	TitleActivityNotice = "Activity Notice"
)

// GenerateSmartAlerts applies the alert rules in order and returns the alerts
// sorted by priority. Alerts of equal priority keep rule order.
func GenerateSmartAlerts(result model.RiskScoreResult, s *model.ProjectSnapshot) []model.Alert {
	if s == nil {
		s = &model.ProjectSnapshot{}
	}
	budget := result.Factor(model.CategoryBudget)
	schedule := result.Factor(model.CategorySchedule)
	cor := result.Factor(model.CategoryCORExposure)
	activity := result.Factor(model.CategoryActivity)
	safety := result.Factor(model.CategorySafety)

	var alerts []model.Alert
	add := func(typ model.AlertType, title, description, action string, target model.ActionTarget) {
		alerts = append(alerts, model.Alert{
			Type:         typ,
			Title:        title,
			Description:  description,
			Action:       action,
			ActionTarget: target,
			ProjectID:    s.ID,
			ProjectName:  s.Name,
		})
	}

	if budget.Status == model.StatusCritical {
		add(model.AlertCritical, TitleBudgetAlert, budget.Label, "Review job costs", model.TargetFinancials)
	}
	if activity.Status == model.StatusCritical {
		add(model.AlertCritical, TitleActivityAlert, activity.Label, "Check in with the site team", model.TargetOverview)
	}
	if safety.Status == model.StatusCritical {
		add(model.AlertCritical, TitleSafetyAlert, safety.Label, "Review incident reports", model.TargetReports)
	}
	if budget.Status == model.StatusWarning {
		add(model.AlertWarning, TitleBudgetWatch, budget.Label, "Monitor job costs", model.TargetFinancials)
	}
	if typ, ok := alertTypeFor(schedule.Status); ok {
		add(typ, TitleScheduleAlert, schedule.Label, "Review the schedule", model.TargetOverview)
	}
	if typ, ok := alertTypeFor(cor.Status); ok {
		add(typ, TitleCORExposure, cor.Label, "Follow up on pending CORs", model.TargetCORs)
	}
	if s.UnbilledAmount > 0 {
		typ := model.AlertInfo
		if s.UnbilledAmount > UnbilledWarningCents {
			typ = model.AlertWarning
		}
		desc := formatCents(s.UnbilledAmount) + " in unbilled work across " +
			plural(s.UnbilledItemCount(), "item", "items")
		add(typ, TitleUnbilledWork, desc, "Create an invoice", model.TargetBilling)
	}
	if activity.Status == model.StatusWarning {
		add(model.AlertInfo, TitleActivityNotice, activity.Label, "File a daily report", model.TargetReports)
	}

	SortAlerts(alerts)
	return alerts
}

// alertTypeFor maps a warning or critical factor status to the matching
// alert type.
func alertTypeFor(s model.Status) (model.AlertType, bool) {
	switch s {
	case model.StatusCritical:
		return model.AlertCritical, true
	case model.StatusWarning:
		return model.AlertWarning, true
	}
	return "", false
}

// SortAlerts stable-sorts alerts critical first, then warning, then info.
func SortAlerts(alerts []model.Alert) {
	slices.SortStableFunc(alerts, func(a, b model.Alert) int {
		return cmp.Compare(a.Type.Priority(), b.Type.Priority())
	})
}
