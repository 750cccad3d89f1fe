package recurring

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

func (r *Repository) Create(ctx context.Context, p *Plan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO recurring_plans (id, user_id, plan_type, monthly_cents, months_required,
		                             growth_rate, status, next_payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, p.ID, p.UserID, p.PlanType, p.MonthlyCents, p.MonthsRequired,
		p.GrowthRate, p.Status, p.NextPaymentDate).Scan(&p.CreatedAt)
}

const selectPlan = `
	SELECT id, user_id, plan_type, monthly_cents, months_required, months_completed,
	       total_contributed_cents, portfolio_value_cents, growth_rate, status,
	       next_payment_date, maturity_date, created_at
	FROM recurring_plans`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
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

// GetForUpdateTx locks the plan row so two concurrent payments of the same
// installment serialize instead of both reading months_completed.
func (r *Repository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Plan, error) {
	var p Plan
	err := tx.GetContext(ctx, &p, selectPlan+` WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Plan, error) {
	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, selectPlan+`
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return plans, err
}

// ApplyInstallmentTx writes the post-payment state computed by the service.
func (r *Repository) ApplyInstallmentTx(ctx context.Context, tx *sqlx.Tx, p *Plan) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE recurring_plans
		SET months_completed = $1, total_contributed_cents = $2,
		    portfolio_value_cents = $3, status = $4, next_payment_date = $5,
		    maturity_date = $6
		WHERE id = $7
	`, p.MonthsCompleted, p.TotalContributedCents, p.PortfolioValueCents,
		p.Status, p.NextPaymentDate, p.MaturityDate, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// CancelTx flips a payable plan to cancelled.
func (r *Repository) CancelTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Plan, error) {
	var p Plan
	err := tx.GetContext(ctx, &p, `
		UPDATE recurring_plans
		SET status = 'cancelled'
		WHERE id = $1 AND status IN ('active', 'missed')
		RETURNING id, user_id, plan_type, monthly_cents, months_required, months_completed,
		          total_contributed_cents, portfolio_value_cents, growth_rate, status,
		          next_payment_date, maturity_date, created_at
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM recurring_plans WHERE id = $1)`, id); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, ErrPlanNotFound
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkMissed flips active plans past their payment date to missed and
// returns how many were flipped.
func (r *Repository) MarkMissed(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_plans
		SET status = 'missed'
		WHERE status = 'active' AND next_payment_date < $1
	`, today)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
