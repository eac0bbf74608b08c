package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/repository"
	"github.com/siterisk/backend/internal/service"
	"github.com/siterisk/backend/pkg/auth"
)

// RiskHandler はプロジェクト・ポートフォリオのリスク評価 HTTP ハンドラ
type RiskHandler struct {
	svc service.RiskService
}

// NewRiskHandler は RiskHandler を生成する
func NewRiskHandler(svc service.RiskService) *RiskHandler {
	return &RiskHandler{svc: svc}
}

// projectRiskResponse は GET /api/projects/{id}/risk のレスポンス
type projectRiskResponse struct {
	ProjectID   string                 `json:"project_id"`
	ProjectName string                 `json:"project_name"`
	Risk        model.RiskScoreResult  `json:"risk"`
	Alerts      []model.Alert          `json:"alerts"`
	Projections model.ProjectionResult `json:"projections"`
}

// Project は GET /api/projects/{id}/risk を処理する（認証必須）
func (h *RiskHandler) Project(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ownerID, ok := auth.OwnerIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	id := r.PathValue("id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "id_required"})
		return
	}

	pr, err := h.svc.ProjectRisk(r.Context(), ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found"})
		return
	}
	if err != nil {
		slog.Error("project risk failed", "error", err, "owner_id", ownerID, "project_id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "evaluation_failed"})
		return
	}

	_ = json.NewEncoder(w).Encode(projectRiskResponse{
		ProjectID:   pr.ProjectID,
		ProjectName: pr.ProjectName,
		Risk: model.RiskScoreResult{
			Score:   pr.RiskScore,
			Status:  pr.RiskStatus,
			Label:   pr.RiskLabel,
			Factors: pr.Factors,
		},
		Alerts:      pr.Alerts,
		Projections: pr.Projections,
	})
}

// Portfolio は GET /api/me/portfolio/risk を処理する（認証必須）
func (h *RiskHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ownerID, ok := auth.OwnerIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	summary, err := h.svc.Portfolio(r.Context(), ownerID)
	if err != nil {
		slog.Error("portfolio risk failed", "error", err, "owner_id", ownerID)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "evaluation_failed"})
		return
	}
	_ = json.NewEncoder(w).Encode(summary)
}
