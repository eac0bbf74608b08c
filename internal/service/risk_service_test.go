package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/repository"
	"github.com/siterisk/backend/internal/risk"
)

// ---------------------------------------------------------------------------
// Mock SnapshotRepository
// ---------------------------------------------------------------------------

type mockSnapshotRepository struct {
	listByOwnerIDFunc func(ctx context.Context, ownerID string, asOf time.Time) ([]*model.ProjectSnapshot, error)
	getByIDFunc       func(ctx context.Context, ownerID, id string, asOf time.Time) (*model.ProjectSnapshot, error)
}

func (m *mockSnapshotRepository) ListByOwnerID(ctx context.Context, ownerID string, asOf time.Time) ([]*model.ProjectSnapshot, error) {
	if m.listByOwnerIDFunc != nil {
		return m.listByOwnerIDFunc(ctx, ownerID, asOf)
	}
	return nil, nil
}
func (m *mockSnapshotRepository) GetByID(ctx context.Context, ownerID, id string, asOf time.Time) (*model.ProjectSnapshot, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, ownerID, id, asOf)
	}
	return nil, repository.ErrNotFound
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var serviceNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func reportedAt(d time.Duration) *time.Time {
	t := serviceNow.Add(-d)
	return &t
}

func steadySnapshot(id string) *model.ProjectSnapshot {
	return &model.ProjectSnapshot{
		ID:               id,
		Name:             "Clinic Fit-out",
		TotalCosts:       50000,
		EarnedRevenue:    100000,
		ActualProgress:   60,
		ExpectedProgress: 55,
		PendingCORValue:  2000,
		ContractValue:    150000,
		LastReportDate:   reportedAt(0),
	}
}

func newTestRiskService(snaps repository.SnapshotRepository, store repository.ThresholdStore) RiskService {
	return NewRiskService(snaps, NewRiskSettingsService(store), RiskServiceConfig{
		Clock:       risk.FixedClock(serviceNow),
		Concurrency: 2,
	})
}

// ---------------------------------------------------------------------------
// ProjectRisk
// ---------------------------------------------------------------------------

func TestRiskService_ProjectRisk_ScopesLookupToOwner(t *testing.T) {
	snaps := &mockSnapshotRepository{
		getByIDFunc: func(_ context.Context, ownerID, id string, asOf time.Time) (*model.ProjectSnapshot, error) {
			if ownerID != "u1" || id != "p1" {
				t.Errorf("expected u1/p1, got %q/%q", ownerID, id)
			}
			if !asOf.Equal(serviceNow) {
				t.Errorf("expected asOf=%v, got %v", serviceNow, asOf)
			}
			return steadySnapshot(id), nil
		},
	}
	svc := newTestRiskService(snaps, &mockThresholdStore{})

	got, err := svc.ProjectRisk(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProjectID != "p1" {
		t.Errorf("expected project p1, got %q", got.ProjectID)
	}
	if got.RiskStatus != model.StatusHealthy {
		t.Errorf("expected healthy, got %q (score %d)", got.RiskStatus, got.RiskScore)
	}
	if len(got.Factors) != len(model.Categories) {
		t.Errorf("expected %d factors, got %d", len(model.Categories), len(got.Factors))
	}
}

func TestRiskService_ProjectRisk_NotFound(t *testing.T) {
	svc := newTestRiskService(&mockSnapshotRepository{}, &mockThresholdStore{})

	_, err := svc.ProjectRisk(context.Background(), "u1", "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRiskService_ProjectRisk_UsesSavedThresholds(t *testing.T) {
	// Three days without a report is a warning under the balanced preset and
	// critical under the conservative one.
	snap := steadySnapshot("p1")
	snap.LastReportDate = reportedAt(3 * 24 * time.Hour)
	snaps := &mockSnapshotRepository{
		getByIDFunc: func(context.Context, string, string, time.Time) (*model.ProjectSnapshot, error) {
			return snap, nil
		},
	}
	conservative, _ := risk.Preset(risk.PresetConservative)
	store := &mockThresholdStore{
		loadFunc: func(context.Context, string) (*model.RiskSettings, error) {
			return &model.RiskSettings{Thresholds: conservative, Weights: risk.DefaultWeights()}, nil
		},
	}

	balanced, err := newTestRiskService(snaps, &mockThresholdStore{}).ProjectRisk(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strict, err := newTestRiskService(snaps, store).ProjectRisk(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s := balanced.Factors[model.CategoryActivity].Status; s != model.StatusWarning {
		t.Errorf("expected warning activity under balanced, got %q", s)
	}
	if s := strict.Factors[model.CategoryActivity].Status; s != model.StatusCritical {
		t.Errorf("expected critical activity under conservative, got %q", s)
	}
}

func TestRiskService_ProjectRisk_SettingsError(t *testing.T) {
	dbErr := errors.New("timeout")
	store := &mockThresholdStore{
		loadFunc: func(context.Context, string) (*model.RiskSettings, error) { return nil, dbErr },
	}
	called := false
	snaps := &mockSnapshotRepository{
		getByIDFunc: func(context.Context, string, string, time.Time) (*model.ProjectSnapshot, error) {
			called = true
			return steadySnapshot("p1"), nil
		},
	}

	_, err := newTestRiskService(snaps, store).ProjectRisk(context.Background(), "u1", "p1")
	if !errors.Is(err, dbErr) {
		t.Errorf("expected settings error, got %v", err)
	}
	if called {
		t.Error("expected snapshot lookup to be skipped")
	}
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

func TestRiskService_Portfolio_AggregatesOwnerProjects(t *testing.T) {
	troubled := &model.ProjectSnapshot{
		ID:                "p2",
		Name:              "Parking Structure",
		TotalCosts:        95000,
		EarnedRevenue:     100000,
		ActualProgress:    40,
		ExpectedProgress:  70,
		PendingCORValue:   40000,
		ContractValue:     150000,
		RecentInjuryCount: 2,
	}
	snaps := &mockSnapshotRepository{
		listByOwnerIDFunc: func(_ context.Context, ownerID string, _ time.Time) ([]*model.ProjectSnapshot, error) {
			if ownerID != "u1" {
				t.Errorf("expected ownerID=u1, got %q", ownerID)
			}
			return []*model.ProjectSnapshot{steadySnapshot("p1"), troubled}, nil
		},
	}

	got, err := newTestRiskService(snaps, &mockThresholdStore{}).Portfolio(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(got.Projects))
	}
	if got.Projects[0].ProjectID != "p1" || got.Projects[1].ProjectID != "p2" {
		t.Errorf("expected input order p1,p2, got %q,%q", got.Projects[0].ProjectID, got.Projects[1].ProjectID)
	}
	if got.CriticalCount == 0 {
		t.Error("expected at least one critical alert")
	}
	if got.AllAlerts[0].Type != model.AlertCritical {
		t.Errorf("expected critical alert first, got %q", got.AllAlerts[0].Type)
	}
}

func TestRiskService_Portfolio_Empty(t *testing.T) {
	got, err := newTestRiskService(&mockSnapshotRepository{}, &mockThresholdStore{}).Portfolio(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Projects) != 0 || len(got.AllAlerts) != 0 {
		t.Errorf("expected empty summary, got %+v", got)
	}
	if got.CriticalCount != 0 || got.WarningCount != 0 {
		t.Errorf("expected zero counts, got %d/%d", got.CriticalCount, got.WarningCount)
	}
}

func TestRiskService_Portfolio_SnapshotError(t *testing.T) {
	dbErr := errors.New("connection reset")
	snaps := &mockSnapshotRepository{
		listByOwnerIDFunc: func(context.Context, string, time.Time) ([]*model.ProjectSnapshot, error) {
			return nil, dbErr
		},
	}
	_, err := newTestRiskService(snaps, &mockThresholdStore{}).Portfolio(context.Background(), "u1")
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped snapshot error, got %v", err)
	}
}
