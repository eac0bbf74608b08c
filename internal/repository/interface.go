package repository

import (
	"context"
	"time"

	"github.com/siterisk/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// SnapshotRepository は業務テーブルから ProjectSnapshot を組み立てる。
// asOf で集計期間を固定し、バッチ再計算の結果を再現可能にする。
type SnapshotRepository interface {
	ListByOwnerID(ctx context.Context, ownerID string, asOf time.Time) ([]*model.ProjectSnapshot, error)
	GetByID(ctx context.Context, ownerID, id string, asOf time.Time) (*model.ProjectSnapshot, error)
}

// ThresholdStore はオーナーのリスク設定を読み書きする。
// 未保存の場合 Load は ErrNotFound を返す。
type ThresholdStore interface {
	Load(ctx context.Context, ownerID string) (*model.RiskSettings, error)
	Save(ctx context.Context, ownerID string, settings *model.RiskSettings) error
}
