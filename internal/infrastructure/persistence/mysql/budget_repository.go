package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-ledger/internal/domain/budget"
	"room-ledger/internal/domain/money"
)

const budgetColumns = `user_id, available_balance, locked_balance, currency, status, created_at, updated_at`

// BudgetRepository MySQL実装のBudgetRepository
type BudgetRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewBudgetRepository 新しいBudgetRepositoryを作成
func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{
		db:     db,
		tracer: otel.Tracer("budget-repository"),
	}
}

// FindByUserID ユーザーIDで予算を取得（ロックなし）
func (r *BudgetRepository) FindByUserID(ctx context.Context, userID int64) (*budget.Budget, error) {
	ctx, span := r.tracer.Start(ctx, "BudgetRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "budgets"),
	)

	query := `SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = ? AND deleted_at IS NULL`

	return r.findOne(ctx, span, r.db.conn(nil), query, userID)
}

// FindByUserIDForUpdate ユーザーIDで予算を行ロック付きで取得
func (r *BudgetRepository) FindByUserIDForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*budget.Budget, error) {
	ctx, span := r.tracer.Start(ctx, "BudgetRepository.FindByUserIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.user_id", userID),
		attribute.String("db.operation", "SELECT FOR UPDATE"),
		attribute.String("db.table", "budgets"),
	)

	query := `SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = ? AND deleted_at IS NULL
		FOR UPDATE`

	return r.findOne(ctx, span, r.db.conn(tx), query, userID)
}

func (r *BudgetRepository) findOne(ctx context.Context, span trace.Span, q queryer, query string, userID int64) (*budget.Budget, error) {
	var (
		dbUserID  int64
		available decimal.Decimal
		locked    decimal.Decimal
		currency  string
		status    string
		createdAt time.Time
		updatedAt time.Time
	)

	err := q.QueryRowContext(ctx, query, userID).Scan(
		&dbUserID,
		&available,
		&locked,
		&currency,
		&status,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "budget not found")
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find budget: %w", err)
	}

	st, err := budget.NewStatus(status)
	if err != nil {
		return nil, fmt.Errorf("invalid budget status: %w", err)
	}

	b, err := budget.NewBudget(dbUserID, available, locked, currency, st)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct budget entity: %w", err)
	}
	b.SetTimestamps(createdAt, updatedAt)

	span.SetAttributes(
		attribute.String("db.available_balance", money.Format(available)),
		attribute.String("db.locked_balance", money.Format(locked)),
		attribute.String("db.status", status),
	)
	span.SetStatus(otelcodes.Ok, "budget found")
	return b, nil
}

// Save 残高とステータスを保存
func (r *BudgetRepository) Save(ctx context.Context, tx *sql.Tx, b *budget.Budget) error {
	ctx, span := r.tracer.Start(ctx, "BudgetRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.user_id", b.UserID()),
		attribute.String("db.available_balance", money.Format(b.AvailableBalance())),
		attribute.String("db.locked_balance", money.Format(b.LockedBalance())),
		attribute.String("db.status", b.Status().String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "budgets"),
	)

	query := `
		UPDATE budgets
		SET available_balance = ?, locked_balance = ?, status = ?, updated_at = ?
		WHERE user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.conn(tx).ExecContext(ctx, query,
		money.Format(b.AvailableBalance()),
		money.Format(b.LockedBalance()),
		b.Status().String(),
		b.UpdatedAt().UTC(),
		b.UserID(),
	)
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save budget: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, "budget not found")
		return budget.ErrBudgetNotFound
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "budget saved")
	return nil
}

// Create 新しい予算を作成（既に存在する場合はErrBudgetAlreadyExists）
func (r *BudgetRepository) Create(ctx context.Context, tx *sql.Tx, b *budget.Budget) error {
	ctx, span := r.tracer.Start(ctx, "BudgetRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.user_id", b.UserID()),
		attribute.String("db.currency", b.Currency()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "budgets"),
	)

	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.conn(tx).ExecContext(ctx, query,
		b.UserID(),
		money.Format(b.AvailableBalance()),
		money.Format(b.LockedBalance()),
		b.Currency(),
		b.Status().String(),
		b.CreatedAt().UTC(),
		b.UpdatedAt().UTC(),
	)
	if isDuplicateEntry(err) {
		span.SetStatus(otelcodes.Error, "budget already exists")
		return budget.ErrBudgetAlreadyExists
	}
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create budget: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "budget created")
	return nil
}
