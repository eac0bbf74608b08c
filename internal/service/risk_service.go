package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siterisk/backend/internal/metrics"
	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/repository"
	"github.com/siterisk/backend/internal/risk"
)

// RiskService evaluates project and portfolio risk for an owner.
type RiskService interface {
	ProjectRisk(ctx context.Context, ownerID, projectID string) (*model.ProjectRisk, error)
	Portfolio(ctx context.Context, ownerID string) (*model.PortfolioRiskSummary, error)
}

// RiskServiceConfig tunes the engine built per request.
type RiskServiceConfig struct {
	Clock       risk.Clock // nil means the system clock
	Concurrency int        // 0 means GOMAXPROCS
}

type riskService struct {
	snapshots repository.SnapshotRepository
	settings  RiskSettingsService
	cfg       RiskServiceConfig
}

// NewRiskService creates a RiskService.
func NewRiskService(snapshots repository.SnapshotRepository, settings RiskSettingsService, cfg RiskServiceConfig) RiskService {
	if cfg.Clock == nil {
		cfg.Clock = risk.SystemClock{}
	}
	return &riskService{snapshots: snapshots, settings: settings, cfg: cfg}
}

// engine builds an engine from the owner's saved settings.
func (s *riskService) engine(ctx context.Context, ownerID string) (*risk.Engine, error) {
	settings, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load risk settings: %w", err)
	}
	return risk.NewEngine(
		risk.WithClock(s.cfg.Clock),
		risk.WithSettings(settings),
		risk.WithConcurrency(s.cfg.Concurrency),
	)
}

func (s *riskService) ProjectRisk(ctx context.Context, ownerID, projectID string) (*model.ProjectRisk, error) {
	e, err := s.engine(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.GetByID(ctx, ownerID, projectID, e.Now())
	if err != nil {
		return nil, err
	}
	result := e.Evaluate(snap)
	metrics.ObserveProject(&result)
	return &result, nil
}

func (s *riskService) Portfolio(ctx context.Context, ownerID string) (*model.PortfolioRiskSummary, error) {
	started := time.Now()
	e, err := s.engine(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.snapshots.ListByOwnerID(ctx, ownerID, e.Now())
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	summary := e.AnalyzePortfolio(snaps)
	metrics.ObservePortfolio(&summary, started)
	slog.Debug("portfolio evaluated",
		"owner_id", ownerID,
		"projects", len(summary.Projects),
		"critical_alerts", summary.CriticalCount,
		"warning_alerts", summary.WarningCount,
	)
	return &summary, nil
}
