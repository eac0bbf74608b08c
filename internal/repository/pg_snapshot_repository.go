package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/siterisk/backend/internal/model"
)

// DefaultInjuryWindowDays は安全ファクターに数える負傷記録の遡及日数
const DefaultInjuryWindowDays = 30

// snapshotSelect はプロジェクトごとに 1 行へ集計する。$1 は基準時刻、$2 は負傷集計の日数。
// WHERE 句は呼び出し側が $3 以降で追加する。
const snapshotSelect = `
SELECT p.id, p.name,
       p.actual_progress::float8, p.expected_progress::float8,
       p.original_contract_value::float8, p.start_date,
       c.total_costs, pa.earned, pa.billed,
       co.approved_value, co.pending_value, co.unbilled_cents, co.unbilled_count,
       tt.unbilled_cents, tt.unbilled_count,
       dr.last_report, si.injuries
FROM projects p
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(amount), 0)::float8 AS total_costs
    FROM cost_entries WHERE project_id = p.id AND incurred_on <= $1
) c ON true
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(earned_amount), 0)::float8 AS earned,
           COALESCE(SUM(billed_amount), 0)::float8 AS billed
    FROM pay_applications WHERE project_id = p.id AND period_end <= $1
) pa ON true
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'approved'), 0)::float8 AS approved_value,
           COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::float8 AS pending_value,
           COALESCE(SUM(ROUND(amount * 100)) FILTER (WHERE status = 'approved' AND NOT billed), 0)::bigint AS unbilled_cents,
           COUNT(*) FILTER (WHERE status = 'approved' AND NOT billed) AS unbilled_count
    FROM change_orders WHERE project_id = p.id
) co ON true
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(amount_cents), 0)::bigint AS unbilled_cents,
           COUNT(*) AS unbilled_count
    FROM time_tickets WHERE project_id = p.id AND NOT billed
) tt ON true
LEFT JOIN LATERAL (
    SELECT MAX(report_date) AS last_report
    FROM daily_reports WHERE project_id = p.id AND report_date <= $1
) dr ON true
LEFT JOIN LATERAL (
    SELECT COUNT(*) AS injuries
    FROM safety_incidents
    WHERE project_id = p.id AND kind = 'injury'
      AND occurred_at > $1 - make_interval(days => $2::int) AND occurred_at <= $1
) si ON true
`

// PgSnapshotRepository は SnapshotRepository の PostgreSQL 実装
type PgSnapshotRepository struct {
	pool             *pgxpool.Pool
	injuryWindowDays int
}

// NewPgSnapshotRepository は PgSnapshotRepository を生成する
func NewPgSnapshotRepository(pool *pgxpool.Pool, injuryWindowDays int) *PgSnapshotRepository {
	if injuryWindowDays <= 0 {
		injuryWindowDays = DefaultInjuryWindowDays
	}
	return &PgSnapshotRepository{pool: pool, injuryWindowDays: injuryWindowDays}
}

// ListByOwnerID はオーナーの稼働中プロジェクトのスナップショット一覧を返す
func (r *PgSnapshotRepository) ListByOwnerID(ctx context.Context, ownerID string, asOf time.Time) ([]*model.ProjectSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		snapshotSelect+`WHERE p.owner_id = $3 AND p.status != 'deleted' ORDER BY p.created_at DESC`,
		asOf, r.injuryWindowDays, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*model.ProjectSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// GetByID は ID でスナップショットを取得する。他オーナーのプロジェクトは ErrNotFound
func (r *PgSnapshotRepository) GetByID(ctx context.Context, ownerID, id string, asOf time.Time) (*model.ProjectSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		snapshotSelect+`WHERE p.id = $3 AND p.owner_id = $4 AND p.status != 'deleted'`,
		asOf, r.injuryWindowDays, id, ownerID,
	)
	s, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSnapshot(row pgx.Row) (*model.ProjectSnapshot, error) {
	var s model.ProjectSnapshot
	var corUnbilled, ticketUnbilled int64
	err := row.Scan(
		&s.ID, &s.Name,
		&s.ActualProgress, &s.ExpectedProgress,
		&s.OriginalContractValue, &s.StartDate,
		&s.TotalCosts, &s.EarnedRevenue, &s.BillableAmount,
		&s.ChangeOrderValue, &s.PendingCORValue, &corUnbilled, &s.UnbilledCORCount,
		&ticketUnbilled, &s.UnbilledTicketCount,
		&s.LastReportDate, &s.RecentInjuryCount,
	)
	if err != nil {
		return nil, err
	}
	s.ContractValue = s.OriginalContractValue + s.ChangeOrderValue
	s.UnbilledAmount = corUnbilled + ticketUnbilled
	return &s, nil
}
