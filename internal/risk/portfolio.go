package risk

import (
	"golang.org/x/sync/errgroup"

	"github.com/siterisk/backend/internal/model"
)

// Health bucket heuristics.
const (
	onTrackBillingSlack = 1.10 // billable may run 10% ahead of earned progress
	atRiskBillingShare  = 0.90
	atRiskProgressLimit = 90
)

// AnalyzePortfolio evaluates every snapshot and merges the results. Projects
// are scored in parallel; the output keeps input order and nil snapshots are
// skipped.
func (e *Engine) AnalyzePortfolio(snapshots []*model.ProjectSnapshot) model.PortfolioRiskSummary {
	results := make([]*model.ProjectRisk, len(snapshots))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, s := range snapshots {
		if s == nil {
			continue
		}
		g.Go(func() error {
			r := e.Evaluate(s)
			results[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	summary := model.PortfolioRiskSummary{
		Projects:  make([]model.ProjectRisk, 0, len(snapshots)),
		AllAlerts: []model.Alert{},
		Rollup:    Rollup(snapshots),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		summary.Projects = append(summary.Projects, *r)
		summary.AllAlerts = append(summary.AllAlerts, r.Alerts...)
	}
	SortAlerts(summary.AllAlerts)

	for _, a := range summary.AllAlerts {
		switch a.Type {
		case model.AlertCritical:
			summary.CriticalCount++
		case model.AlertWarning:
			summary.WarningCount++
		}
	}
	return summary
}

// Rollup totals contract values across the portfolio and counts projects per
// health heuristic. The heuristics overlap: one project can be on track and
// at risk at the same time.
func Rollup(snapshots []*model.ProjectSnapshot) model.PortfolioRollup {
	var r model.PortfolioRollup
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		original, changeOrders := s.OriginalContractValue, s.ChangeOrderValue
		if original == 0 && changeOrders == 0 {
			original = s.ContractValue
		}
		r.TotalOriginalContract += original
		r.TotalChangeOrders += changeOrders
		r.TotalEarned += s.EarnedRevenue

		progress := s.ActualProgress
		contract := s.ContractValue
		billable := s.BillableAmount
		if progress >= 100 {
			r.Health.Complete++
		}
		if progress < 100 && billable <= contract*(progress/100)*onTrackBillingSlack {
			r.Health.OnTrack++
		}
		if billable > contract*atRiskBillingShare && progress < atRiskProgressLimit {
			r.Health.AtRisk++
		}
		if billable > contract {
			r.Health.OverBudget++
		}
	}
	r.TotalPortfolioValue = r.TotalOriginalContract + r.TotalChangeOrders
	r.TotalRemaining = r.TotalPortfolioValue - r.TotalEarned
	if r.TotalPortfolioValue > 0 {
		r.WeightedCompletion = r.TotalEarned / r.TotalPortfolioValue * 100
	}
	return r
}
