package model

import "time"

// ProjectSnapshot is the point-in-time numeric summary of one project that the
// risk engine scores. It is built by the snapshot repository and never mutated
// after it is handed to the engine.
type ProjectSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	TotalCosts       float64 `json:"total_costs"`
	EarnedRevenue    float64 `json:"earned_revenue"`
	ActualProgress   float64 `json:"actual_progress"`   // 0-100
	ExpectedProgress float64 `json:"expected_progress"` // 0-100
	PendingCORValue  float64 `json:"pending_cor_value"`
	ContractValue    float64 `json:"contract_value"` // original + approved change orders

	LastReportDate    *time.Time `json:"last_report_date,omitempty"`
	RecentInjuryCount int        `json:"recent_injury_count"`
	StartDate         *time.Time `json:"start_date,omitempty"`

	// UnbilledAmount is in minor currency units (cents).
	UnbilledAmount      int64 `json:"unbilled_amount"`
	UnbilledCORCount    int   `json:"unbilled_cor_count"`
	UnbilledTicketCount int   `json:"unbilled_ticket_count"`

	// Portfolio roll-up inputs.
	OriginalContractValue float64 `json:"original_contract_value"`
	ChangeOrderValue      float64 `json:"change_order_value"`
	BillableAmount        float64 `json:"billable_amount"`
}

// UnbilledItemCount returns the number of unbilled CORs and T&M tickets.
func (s *ProjectSnapshot) UnbilledItemCount() int {
	return s.UnbilledCORCount + s.UnbilledTicketCount
}
