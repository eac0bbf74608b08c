package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/siterisk/backend/internal/model"
)

func writeJSON(w io.Writer, s *model.PortfolioRiskSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusHealthy:
		return color.New(color.FgGreen)
	case model.StatusWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func alertColor(t model.AlertType) *color.Color {
	switch t {
	case model.AlertCritical:
		return color.New(color.FgRed)
	case model.AlertWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// writeText prints one line per project followed by the merged alert list.
// Colors are disabled when stdout is not a terminal.
func writeText(w io.Writer, s *model.PortfolioRiskSummary) error {
	for _, p := range s.Projects {
		status := statusColor(p.RiskStatus).Sprintf("%-8s", p.RiskStatus)
		if _, err := fmt.Fprintf(w, "%3d  %s  %s  (%s)\n", p.RiskScore, status, p.ProjectName, p.RiskLabel); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n%d critical, %d warning alerts\n", s.CriticalCount, s.WarningCount); err != nil {
		return err
	}
	for _, a := range s.AllAlerts {
		kind := alertColor(a.Type).Sprintf("%-8s", a.Type)
		if _, err := fmt.Fprintf(w, "  %s  %s: %s. %s\n", kind, a.ProjectName, a.Title, a.Description); err != nil {
			return err
		}
	}
	return nil
}
