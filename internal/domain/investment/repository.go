package investment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const selectPlan = `
	SELECT id, name, kind, min_amount_cents, max_amount_cents, daily_rate,
	       duration_days, asset_id, base_daily_rate, alpha, min_daily_rate,
	       max_daily_rate, is_active
	FROM investment_plans`

func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, selectPlan+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, selectPlan+` WHERE is_active ORDER BY min_amount_cents ASC`)
	return plans, err
}

// CountryLimit returns the per-country override for a plan, or nil when
// the plan has none for that country.
func (r *Repository) CountryLimit(ctx context.Context, planID uuid.UUID, country string) (*CountryLimit, error) {
	var cl CountryLimit
	err := r.db.GetContext(ctx, &cl, `
		SELECT plan_id, country, min_amount_cents, max_amount_cents, allowed
		FROM plan_country_limits
		WHERE plan_id = $1 AND country = $2
	`, planID, country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, inv *Investment) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	return tx.QueryRowxContext(ctx, `
		INSERT INTO investments (id, user_id, plan_id, amount_cents, daily_rate,
		                         duration_days, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, inv.ID, inv.UserID, inv.PlanID, inv.AmountCents, inv.DailyRate,
		inv.DurationDays, inv.StartDate, inv.EndDate, inv.Status).Scan(&inv.CreatedAt)
}

const selectInvestment = `
	SELECT id, user_id, plan_id, amount_cents, daily_rate, duration_days,
	       start_date, end_date, days_accrued, total_return_cents,
	       last_accrual_date, status, created_at
	FROM investments`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Investment, error) {
	var inv Investment
	err := r.db.GetContext(ctx, &inv, selectInvestment+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Investment, error) {
	var items []Investment
	err := r.db.SelectContext(ctx, &items, selectInvestment+`
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return items, err
}

// ListDueForAccrual pages through active investments not yet accrued for
// the given date. Ordered by id so a crashed run resumes deterministically.
// The days_accrued bound keeps a position at term from ever earning an
// extra day, whatever state its row is in.
func (r *Repository) ListDueForAccrual(ctx context.Context, date time.Time, limit int, afterID uuid.UUID) ([]Investment, error) {
	var items []Investment
	err := r.db.SelectContext(ctx, &items, selectInvestment+`
		WHERE status = 'active'
		  AND days_accrued < duration_days
		  AND (last_accrual_date IS NULL OR last_accrual_date < $1)
		  AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`, date, afterID, limit)
	return items, err
}

// ApplyAccrualTx bumps the accrual counters for one day. The date and
// term guards in the WHERE clause make a concurrent or repeated run a
// clean ErrAlreadyAccrued instead of a double bump or a day past term.
func (r *Repository) ApplyAccrualTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, date time.Time, profitCents int64) (*Investment, error) {
	var inv Investment
	err := tx.GetContext(ctx, &inv, `
		UPDATE investments
		SET days_accrued = days_accrued + 1,
		    total_return_cents = total_return_cents + $1,
		    last_accrual_date = $2
		WHERE id = $3
		  AND status = 'active'
		  AND days_accrued < duration_days
		  AND (last_accrual_date IS NULL OR last_accrual_date < $2)
		RETURNING id, user_id, plan_id, amount_cents, daily_rate, duration_days,
		          start_date, end_date, days_accrued, total_return_cents,
		          last_accrual_date, status, created_at
	`, profitCents, date, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlreadyAccrued
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// TerminateTx flips an active investment to a terminal status.
func (r *Repository) TerminateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) (*Investment, error) {
	var inv Investment
	err := tx.GetContext(ctx, &inv, `
		UPDATE investments
		SET status = $1
		WHERE id = $2 AND status = 'active'
		RETURNING id, user_id, plan_id, amount_cents, daily_rate, duration_days,
		          start_date, end_date, days_accrued, total_return_cents,
		          last_accrual_date, status, created_at
	`, status, id)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM investments WHERE id = $1)`, id); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, ErrInvestmentNotFound
		}
		return nil, ErrNotActive
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	var s Summary
	err := r.db.GetContext(ctx, &s, `
		SELECT COUNT(*) FILTER (WHERE status = 'active')                            AS active_count,
		       COUNT(*) FILTER (WHERE status = 'completed')                         AS completed_count,
		       COALESCE(SUM(amount_cents) FILTER (WHERE status = 'active'), 0)      AS active_principal_cents,
		       COALESCE(SUM(total_return_cents), 0)                                 AS total_return_cents
		FROM investments
		WHERE user_id = $1
	`, userID)
	return &s, err
}
