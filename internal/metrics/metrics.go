// Package metrics exposes Prometheus instruments for risk evaluations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siterisk/backend/internal/model"
)

var (
	// projectEvaluations counts scored projects by composite status.
	projectEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siterisk_project_evaluations_total",
		Help: "Projects scored by composite risk status",
	}, []string{"status"})

	// alertsGenerated counts alerts by type.
	alertsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siterisk_alerts_generated_total",
		Help: "Alerts generated by type",
	}, []string{"type"})

	portfolioDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "siterisk_portfolio_duration_seconds",
		Help:    "Portfolio evaluation duration including snapshot loading",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	portfolioSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "siterisk_portfolio_projects",
		Help:    "Projects per portfolio evaluation",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	settingsSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siterisk_risk_settings_saves_total",
		Help: "Risk settings saves by preset (custom when none matches)",
	}, []string{"preset"})
)

// ObserveProject records one evaluated project and its alerts.
func ObserveProject(p *model.ProjectRisk) {
	projectEvaluations.WithLabelValues(string(p.RiskStatus)).Inc()
	for _, a := range p.Alerts {
		alertsGenerated.WithLabelValues(string(a.Type)).Inc()
	}
}

// ObservePortfolio records a portfolio evaluation.
func ObservePortfolio(s *model.PortfolioRiskSummary, started time.Time) {
	portfolioDuration.Observe(time.Since(started).Seconds())
	portfolioSize.Observe(float64(len(s.Projects)))
	for i := range s.Projects {
		ObserveProject(&s.Projects[i])
	}
}

// ObserveSettingsSave records a settings save.
func ObserveSettingsSave(preset string) {
	if preset == "" {
		preset = "custom"
	}
	settingsSaves.WithLabelValues(preset).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
