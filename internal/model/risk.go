package model

import "time"

// Status is the health bucket of a factor or composite score.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// AlertType is the severity of an alert.
type AlertType string

const (
	AlertCritical AlertType = "critical"
	AlertWarning  AlertType = "warning"
	AlertInfo     AlertType = "info"
)

// Priority orders alert types: lower sorts first.
func (t AlertType) Priority() int {
	switch t {
	case AlertCritical:
		return 0
	case AlertWarning:
		return 1
	default:
		return 2
	}
}

// ActionTarget names the screen a client should navigate to for an alert.
type ActionTarget string

const (
	TargetFinancials ActionTarget = "financials"
	TargetOverview   ActionTarget = "overview"
	TargetReports    ActionTarget = "reports"
	TargetCORs       ActionTarget = "cors"
	TargetBilling    ActionTarget = "billing"
)

// FactorResult is the score of one risk factor.
type FactorResult struct {
	Score  float64 `json:"score"` // 0-100
	Status Status  `json:"status"`
	Label  string  `json:"label"`
	// Value is the raw factor value named by Unit. Nil when there was not
	// enough data to compute it.
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit"`
	Weight float64  `json:"weight,omitempty"`
}

// RiskScoreResult is the composite score of one project.
type RiskScoreResult struct {
	Score   int                       `json:"score"` // 0-100
	Status  Status                    `json:"status"`
	Label   string                    `json:"label"`
	Factors map[Category]FactorResult `json:"factors"`
}

// Factor returns the result for c.
func (r *RiskScoreResult) Factor(c Category) FactorResult {
	return r.Factors[c]
}

// Alert is one actionable finding for a project.
type Alert struct {
	Type         AlertType    `json:"type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Action       string       `json:"action"`
	ActionTarget ActionTarget `json:"action_target"`
	ProjectID    string       `json:"project_id"`
	ProjectName  string       `json:"project_name,omitempty"`
}

// ProjectionResult holds linear forecasts. Nil fields mean not enough data.
type ProjectionResult struct {
	EstimatedCompletionCost *float64   `json:"estimated_completion_cost"`
	EstimatedFinalMargin    *float64   `json:"estimated_final_margin"`
	EstimatedCompletionDate *time.Time `json:"estimated_completion_date"`
	CostPerPercent          *float64   `json:"cost_per_percent,omitempty"`
}

// ProjectRisk is the full evaluation of one project.
type ProjectRisk struct {
	ProjectID   string                    `json:"project_id"`
	ProjectName string                    `json:"project_name"`
	RiskScore   int                       `json:"risk_score"`
	RiskStatus  Status                    `json:"risk_status"`
	RiskLabel   string                    `json:"risk_label"`
	Factors     map[Category]FactorResult `json:"factors"`
	Alerts      []Alert                   `json:"alerts"`
	Projections ProjectionResult          `json:"projections"`
}

// HealthBuckets counts projects per progress/billing heuristic. A project may
// be counted in more than one bucket.
type HealthBuckets struct {
	Complete   int `json:"complete"`
	OnTrack    int `json:"on_track"`
	AtRisk     int `json:"at_risk"`
	OverBudget int `json:"over_budget"`
}

// PortfolioRollup aggregates contract values across projects.
type PortfolioRollup struct {
	TotalOriginalContract float64       `json:"total_original_contract"`
	TotalChangeOrders     float64       `json:"total_change_orders"`
	TotalPortfolioValue   float64       `json:"total_portfolio_value"`
	TotalEarned           float64       `json:"total_earned"`
	TotalRemaining        float64       `json:"total_remaining"`
	WeightedCompletion    float64       `json:"weighted_completion"` // percent
	Health                HealthBuckets `json:"health"`
}

// PortfolioRiskSummary is the evaluation of a collection of projects.
type PortfolioRiskSummary struct {
	Projects      []ProjectRisk   `json:"projects"`
	AllAlerts     []Alert         `json:"all_alerts"`
	CriticalCount int             `json:"critical_count"`
	WarningCount  int             `json:"warning_count"`
	Rollup        PortfolioRollup `json:"rollup"`
}
