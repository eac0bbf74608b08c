package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/siterisk/backend/internal/model"
)

// PgThresholdStore は ThresholdStore の PostgreSQL 実装。
// thresholds と weights は JSONB 列に保存する。
type PgThresholdStore struct {
	pool *pgxpool.Pool
}

// NewPgThresholdStore は PgThresholdStore を生成する
func NewPgThresholdStore(pool *pgxpool.Pool) *PgThresholdStore {
	return &PgThresholdStore{pool: pool}
}

// Load はオーナーの設定を返す。未保存なら ErrNotFound
func (r *PgThresholdStore) Load(ctx context.Context, ownerID string) (*model.RiskSettings, error) {
	var s model.RiskSettings
	err := r.pool.QueryRow(ctx,
		`SELECT thresholds, weights FROM risk_settings WHERE owner_id = $1`,
		ownerID,
	).Scan(&s.Thresholds, &s.Weights)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save は設定を upsert する
func (r *PgThresholdStore) Save(ctx context.Context, ownerID string, settings *model.RiskSettings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO risk_settings (owner_id, thresholds, weights)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id) DO UPDATE SET
		   thresholds = EXCLUDED.thresholds,
		   weights = EXCLUDED.weights,
		   updated_at = NOW()`,
		ownerID, settings.Thresholds, settings.Weights,
	)
	return err
}
