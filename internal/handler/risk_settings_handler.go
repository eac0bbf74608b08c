package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/risk"
	"github.com/siterisk/backend/internal/service"
	"github.com/siterisk/backend/pkg/auth"
)

// settingsValidate はリクエストボディを検証し、フィールドを JSON 名で報告する
var settingsValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// saveSettingsRequest は PUT /api/me/risk-settings のリクエストボディ
type saveSettingsRequest struct {
	Thresholds *model.ThresholdSet   `json:"thresholds" validate:"required"`
	Weights    model.WeightOverrides `json:"weights" validate:"omitempty,dive,gte=0"`
}

// applyPresetRequest は PUT /api/me/risk-settings/preset のリクエストボディ
type applyPresetRequest struct {
	Preset string `json:"preset" validate:"required"`
}

// RiskSettingsHandler はリスク閾値・重み設定の HTTP ハンドラ
type RiskSettingsHandler struct {
	svc service.RiskSettingsService
}

// NewRiskSettingsHandler は RiskSettingsHandler を生成する
func NewRiskSettingsHandler(svc service.RiskSettingsService) *RiskSettingsHandler {
	return &RiskSettingsHandler{svc: svc}
}

// Get は GET /api/me/risk-settings を処理する（認証必須）
func (h *RiskSettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ownerID, ok := auth.OwnerIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	settings, err := h.svc.Get(r.Context(), ownerID)
	if err != nil {
		slog.Error("risk settings get failed", "error", err, "owner_id", ownerID)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "get_failed"})
		return
	}
	_ = json.NewEncoder(w).Encode(settings)
}

// Save は PUT /api/me/risk-settings を処理する（認証必須）
func (h *RiskSettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ownerID, ok := auth.OwnerIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_json"})
		return
	}
	if err := settingsValidate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	settings, err := h.svc.Save(r.Context(), ownerID, *req.Thresholds, req.Weights)
	if err != nil {
		h.writeSaveError(w, err, ownerID)
		return
	}
	_ = json.NewEncoder(w).Encode(settings)
}

// ApplyPreset は PUT /api/me/risk-settings/preset を処理する（認証必須）
func (h *RiskSettingsHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ownerID, ok := auth.OwnerIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	var req applyPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_json"})
		return
	}
	if err := settingsValidate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	settings, err := h.svc.ApplyPreset(r.Context(), ownerID, risk.PresetKey(req.Preset))
	if errors.Is(err, service.ErrUnknownPreset) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown_preset"})
		return
	}
	if err != nil {
		h.writeSaveError(w, err, ownerID)
		return
	}
	_ = json.NewEncoder(w).Encode(settings)
}

// Presets は GET /api/risk/presets を処理する
func (h *RiskSettingsHandler) Presets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"presets": h.svc.Presets()})
}

func (h *RiskSettingsHandler) writeSaveError(w http.ResponseWriter, err error, ownerID string) {
	var orderErr *risk.ThresholdOrderError
	switch {
	case errors.As(err, &orderErr):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":    "invalid_thresholds",
			"category": string(orderErr.Category),
		})
	case errors.Is(err, risk.ErrInvalidWeights):
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_weights"})
	default:
		slog.Error("risk settings save failed", "error", err, "owner_id", ownerID)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "save_failed"})
	}
}

// writeValidationError は最初に失敗したフィールドを返す。
// 重みの失敗はサービス層で拒否された場合と同じエラーコードを使う。
func writeValidationError(w http.ResponseWriter, err error) {
	code, field := "invalid_request", ""
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field = verrs[0].Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if strings.HasPrefix(field, "weights") {
			code = "invalid_weights"
		}
	}
	w.WriteHeader(http.StatusBadRequest)
	body := map[string]string{"error": code}
	if field != "" {
		body["field"] = field
	}
	_ = json.NewEncoder(w).Encode(body)
}
