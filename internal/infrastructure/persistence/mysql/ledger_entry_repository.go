package mysql

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/domain/money"
)

const entryColumns = `id, user_id, direction, operation_type, amount, currency,
	balance_before, balance_after, counterparty_user_id, correlation_id,
	idempotency_key, meta, created_at`

// LedgerEntryRepository MySQL実装のEntryRepository
type LedgerEntryRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewLedgerEntryRepository 新しいLedgerEntryRepositoryを作成
func NewLedgerEntryRepository(db *DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{
		db:     db,
		tracer: otel.Tracer("ledger-entry-repository"),
	}
}

// Save エントリを追記
func (r *LedgerEntryRepository) Save(ctx context.Context, tx *sql.Tx, e *ledger.Entry) error {
	ctx, span := r.tracer.Start(ctx, "LedgerEntryRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.entry_id", e.ID()),
		attribute.Int64("db.user_id", e.UserID()),
		attribute.String("db.direction", e.Direction().String()),
		attribute.String("db.operation_type", e.OperationType()),
		attribute.String("db.amount", money.Format(e.Amount())),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "ledger_entries"),
	)

	query := `
		INSERT INTO ledger_entries (
			id, user_id, direction, operation_type, amount, currency,
			balance_before, balance_after, counterparty_user_id, correlation_id,
			idempotency_key, room_id, meta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var metaJSON interface{}
	if e.Meta() != nil {
		raw, err := json.Marshal(e.Meta())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to marshal meta: %w", err)
		}
		metaJSON = string(raw)
	}

	_, err := r.db.conn(tx).ExecContext(ctx, query,
		e.ID(),
		e.UserID(),
		e.Direction().String(),
		e.OperationType(),
		money.Format(e.Amount()),
		e.Currency(),
		money.Format(e.BalanceBefore()),
		money.Format(e.BalanceAfter()),
		nullableInt64(e.CounterpartyUserID()),
		nullableString(e.CorrelationID()),
		nullableString(e.IdempotencyKey()),
		nullableInt64(e.RoomID()),
		metaJSON,
		e.CreatedAt().UTC(),
	)
	if isDuplicateEntry(err) {
		span.SetStatus(otelcodes.Error, "duplicate idempotency key")
		return ledger.ErrDuplicateIdempotencyKey
	}
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save ledger entry: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "ledger entry saved")
	return nil
}

// FindByIdempotencyKey 冪等キーでエントリを取得
func (r *LedgerEntryRepository) FindByIdempotencyKey(ctx context.Context, tx *sql.Tx, key string) (*ledger.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "LedgerEntryRepository.FindByIdempotencyKey")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.idempotency_key", key),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "ledger_entries"),
	)

	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE idempotency_key = ?`

	e, err := scanEntry(r.db.conn(tx).QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "ledger entry not found")
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		err = translateError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find ledger entry: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "ledger entry found")
	return e, nil
}

// FindByUserID ユーザーIDでエントリ一覧を新しい順に取得
func (r *LedgerEntryRepository) FindByUserID(ctx context.Context, userID int64, filter ledger.Filter, limit, offset int) ([]*ledger.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "LedgerEntryRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.user_id", userID),
		attribute.String("db.operation_type", filter.OperationType),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "ledger_entries"),
	)

	where, args := entryFilter(userID, filter)
	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*ledger.Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows_returned", len(entries)))
	span.SetStatus(otelcodes.Ok, "ledger entries found")
	return entries, nil
}

// CountByUserID 検索条件に一致するエントリ数を取得
func (r *LedgerEntryRepository) CountByUserID(ctx context.Context, userID int64, filter ledger.Filter) (int, error) {
	ctx, span := r.tracer.Start(ctx, "LedgerEntryRepository.CountByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.user_id", userID),
		attribute.String("db.operation", "SELECT COUNT"),
		attribute.String("db.table", "ledger_entries"),
	)

	where, args := entryFilter(userID, filter)
	query := `SELECT COUNT(*) FROM ledger_entries WHERE ` + where

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(otelcodes.Ok, "ledger entries counted")
	return count, nil
}

// entryFilter WHERE句と引数を組み立てる
func entryFilter(userID int64, filter ledger.Filter) (string, []interface{}) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}
	if filter.OperationType != "" {
		conditions = append(conditions, "operation_type = ?")
		args = append(args, filter.OperationType)
	}
	if filter.RoomID != nil {
		conditions = append(conditions, "room_id = ?")
		args = append(args, *filter.RoomID)
	}
	return strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var (
		id             string
		userID         int64
		direction      string
		operationType  string
		amount         decimal.Decimal
		currency       string
		balanceBefore  decimal.Decimal
		balanceAfter   decimal.Decimal
		counterparty   sql.NullInt64
		correlationID  sql.NullString
		idempotencyKey sql.NullString
		metaJSON       []byte
		createdAt      time.Time
	)

	if err := row.Scan(
		&id,
		&userID,
		&direction,
		&operationType,
		&amount,
		&currency,
		&balanceBefore,
		&balanceAfter,
		&counterparty,
		&correlationID,
		&idempotencyKey,
		&metaJSON,
		&createdAt,
	); err != nil {
		return nil, err
	}

	dir, err := ledger.NewDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("invalid direction: %w", err)
	}

	var meta map[string]interface{}
	if len(metaJSON) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(metaJSON))
		decoder.UseNumber()
		if err := decoder.Decode(&meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
		}
	}

	var counterpartyUserID *int64
	if counterparty.Valid {
		v := counterparty.Int64
		counterpartyUserID = &v
	}

	e, err := ledger.NewEntry(ledger.EntryParams{
		ID:                 id,
		UserID:             userID,
		Direction:          dir,
		OperationType:      operationType,
		Amount:             amount,
		Currency:           currency,
		BalanceBefore:      balanceBefore,
		BalanceAfter:       balanceAfter,
		CounterpartyUserID: counterpartyUserID,
		CorrelationID:      correlationID.String,
		IdempotencyKey:     idempotencyKey.String,
		Meta:               meta,
		CreatedAt:          createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct ledger entry: %w", err)
	}
	return e, nil
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
