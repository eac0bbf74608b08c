package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/risk"
	"github.com/siterisk/backend/internal/service"
)

// ---------------------------------------------------------------------------
// Mock RiskSettingsService
// ---------------------------------------------------------------------------

type mockRiskSettingsService struct {
	getFunc         func(ctx context.Context, ownerID string) (*model.RiskSettings, error)
	saveFunc        func(ctx context.Context, ownerID string, t model.ThresholdSet, w model.WeightOverrides) (*model.RiskSettings, error)
	applyPresetFunc func(ctx context.Context, ownerID string, key risk.PresetKey) (*model.RiskSettings, error)
}

func (m *mockRiskSettingsService) Get(ctx context.Context, ownerID string) (*model.RiskSettings, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ownerID)
	}
	return service.DefaultRiskSettings(), nil
}
func (m *mockRiskSettingsService) Save(ctx context.Context, ownerID string, t model.ThresholdSet, w model.WeightOverrides) (*model.RiskSettings, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, ownerID, t, w)
	}
	return &model.RiskSettings{Thresholds: t, Weights: risk.DefaultWeights()}, nil
}
func (m *mockRiskSettingsService) ApplyPreset(ctx context.Context, ownerID string, key risk.PresetKey) (*model.RiskSettings, error) {
	if m.applyPresetFunc != nil {
		return m.applyPresetFunc(ctx, ownerID, key)
	}
	return service.DefaultRiskSettings(), nil
}
func (m *mockRiskSettingsService) Presets() []service.PresetInfo {
	return service.NewRiskSettingsService(nil).Presets()
}

const validSettingsBody = `{
	"thresholds": {
		"budget":       {"healthy": 0.6,  "warning": 0.75, "critical": 0.85},
		"schedule":     {"healthy": 0.05, "warning": 0.15, "critical": 0.25},
		"cor_exposure": {"healthy": 0.05, "warning": 0.15, "critical": 0.25},
		"activity":     {"healthy": 1,    "warning": 3,    "critical": 5},
		"safety":       {"healthy": 0,    "warning": 1,    "critical": 2}
	},
	"weights": {"budget": 0.4}
}`

// ---------------------------------------------------------------------------
// GET /api/me/risk-settings
// ---------------------------------------------------------------------------

func TestRiskSettingsHandler_Get_RequiresAuth(t *testing.T) {
	h := NewRiskSettingsHandler(&mockRiskSettingsService{})
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/me/risk-settings", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRiskSettingsHandler_Get_ReturnsDefaults(t *testing.T) {
	h := NewRiskSettingsHandler(&mockRiskSettingsService{})
	rec := httptest.NewRecorder()
	h.Get(rec, ownerRequest(http.MethodGet, "/api/me/risk-settings", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp model.RiskSettings
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Preset != "balanced" {
		t.Errorf("expected preset=balanced, got %q", resp.Preset)
	}
	if resp.Thresholds != risk.DefaultThresholds() {
		t.Errorf("expected default thresholds, got %+v", resp.Thresholds)
	}
}

// ---------------------------------------------------------------------------
// PUT /api/me/risk-settings
// ---------------------------------------------------------------------------

func TestRiskSettingsHandler_Save_Success(t *testing.T) {
	var gotWeights model.WeightOverrides
	h := NewRiskSettingsHandler(&mockRiskSettingsService{
		saveFunc: func(_ context.Context, ownerID string, th model.ThresholdSet, w model.WeightOverrides) (*model.RiskSettings, error) {
			if ownerID != "owner-1" {
				t.Errorf("expected owner-1, got %q", ownerID)
			}
			if th != risk.DefaultThresholds() {
				t.Errorf("expected thresholds to decode, got %+v", th)
			}
			gotWeights = w
			return &model.RiskSettings{Thresholds: th, Weights: risk.DefaultWeights()}, nil
		},
	})
	rec := httptest.NewRecorder()
	h.Save(rec, ownerRequest(http.MethodPut, "/api/me/risk-settings", validSettingsBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d - body: %s", rec.Code, rec.Body.String())
	}
	if gotWeights[model.CategoryBudget] != 0.4 {
		t.Errorf("expected budget weight 0.4, got %+v", gotWeights)
	}
}

func TestRiskSettingsHandler_Save_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		svcErr    error
		wantCode  int
		wantError string
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest, "invalid_json"},
		{"missing thresholds", `{"weights": {}}`, nil, http.StatusBadRequest, "invalid_request"},
		{"negative threshold", `{"thresholds": {"budget": {"healthy": -1}}}`, nil, http.StatusBadRequest, "invalid_request"},
		{"negative weight", `{"thresholds": {}, "weights": {"safety": -0.5}}`, nil, http.StatusBadRequest, "invalid_weights"},
		{
			"unordered thresholds", validSettingsBody,
			&risk.ThresholdOrderError{Category: model.CategorySchedule},
			http.StatusUnprocessableEntity, "invalid_thresholds",
		},
		{
			"unknown weight category", validSettingsBody,
			fmt.Errorf("%w: unknown category %q", risk.ErrInvalidWeights, "weather"),
			http.StatusBadRequest, "invalid_weights",
		},
		{"store failure", validSettingsBody, errors.New("db down"), http.StatusInternalServerError, "save_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRiskSettingsHandler(&mockRiskSettingsService{
				saveFunc: func(context.Context, string, model.ThresholdSet, model.WeightOverrides) (*model.RiskSettings, error) {
					if tt.svcErr == nil {
						t.Error("service should not be called")
						return nil, errors.New("unexpected call")
					}
					return nil, tt.svcErr
				},
			})
			rec := httptest.NewRecorder()
			h.Save(rec, ownerRequest(http.MethodPut, "/api/me/risk-settings", tt.body))

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if body := decodeError(t, rec); body["error"] != tt.wantError {
				t.Errorf("expected error=%s, got %q", tt.wantError, body["error"])
			}
		})
	}
}

func TestRiskSettingsHandler_Save_ReportsCategory(t *testing.T) {
	h := NewRiskSettingsHandler(&mockRiskSettingsService{
		saveFunc: func(context.Context, string, model.ThresholdSet, model.WeightOverrides) (*model.RiskSettings, error) {
			return nil, &risk.ThresholdOrderError{Category: model.CategoryCORExposure}
		},
	})
	rec := httptest.NewRecorder()
	h.Save(rec, ownerRequest(http.MethodPut, "/api/me/risk-settings", validSettingsBody))

	if body := decodeError(t, rec); body["category"] != "cor_exposure" {
		t.Errorf("expected category=cor_exposure, got %q", body["category"])
	}
}

// ---------------------------------------------------------------------------
// PUT /api/me/risk-settings/preset
// ---------------------------------------------------------------------------

func TestRiskSettingsHandler_ApplyPreset_Success(t *testing.T) {
	var gotKey risk.PresetKey
	h := NewRiskSettingsHandler(&mockRiskSettingsService{
		applyPresetFunc: func(_ context.Context, _ string, key risk.PresetKey) (*model.RiskSettings, error) {
			gotKey = key
			th, _ := risk.Preset(key)
			return &model.RiskSettings{Thresholds: th, Weights: risk.DefaultWeights(), Preset: string(key)}, nil
		},
	})
	rec := httptest.NewRecorder()
	h.ApplyPreset(rec, ownerRequest(http.MethodPut, "/api/me/risk-settings/preset", `{"preset":"aggressive"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotKey != risk.PresetAggressive {
		t.Errorf("expected aggressive, got %q", gotKey)
	}
}

func TestRiskSettingsHandler_ApplyPreset_Unknown(t *testing.T) {
	h := NewRiskSettingsHandler(&mockRiskSettingsService{
		applyPresetFunc: func(context.Context, string, risk.PresetKey) (*model.RiskSettings, error) {
			return nil, service.ErrUnknownPreset
		},
	})
	rec := httptest.NewRecorder()
	h.ApplyPreset(rec, ownerRequest(http.MethodPut, "/api/me/risk-settings/preset", `{"preset":"reckless"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "unknown_preset" {
		t.Errorf("expected error=unknown_preset, got %q", body["error"])
	}
}

func TestRiskSettingsHandler_ApplyPreset_MissingKey(t *testing.T) {
	h := NewRiskSettingsHandler(&mockRiskSettingsService{})
	rec := httptest.NewRecorder()
	h.ApplyPreset(rec, ownerRequest(http.MethodPut, "/api/me/risk-settings/preset", `{}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /api/risk/presets
// ---------------------------------------------------------------------------

func TestRiskSettingsHandler_Presets(t *testing.T) {
	h := NewRiskSettingsHandler(&mockRiskSettingsService{})
	rec := httptest.NewRecorder()
	h.Presets(rec, httptest.NewRequest(http.MethodGet, "/api/risk/presets", nil))

	var resp struct {
		Presets []struct {
			Key string `json:"key"`
		} `json:"presets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Presets) != 3 || resp.Presets[1].Key != "balanced" {
		t.Errorf("unexpected presets: %+v", resp.Presets)
	}
}
