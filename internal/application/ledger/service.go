package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room-ledger/internal/domain/budget"
	"room-ledger/internal/domain/errcode"
	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/domain/money"
	"room-ledger/internal/domain/transaction"
	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

const (
	// OperationTypeProvision 予算作成時の初期残高
	OperationTypeProvision = "BUDGET_PROVISION"

	// transferInKeySuffix 振替の入金側エントリの冪等キー接尾辞
	transferInKeySuffix = ":in"
)

// LedgerApplicationService 台帳アプリケーションサービス
// 残高を変更する操作はすべてこのサービスを経由する
type LedgerApplicationService struct {
	budgetRepo      budget.BudgetRepository
	entryRepo       ledger.EntryRepository
	txManager       transaction.TransactionManager
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
	defaultCurrency string
	defaultPageSize int
	maxPageSize     int
	newID           func() string
}

// NewLedgerApplicationService 新しいLedgerApplicationServiceを作成
func NewLedgerApplicationService(
	budgetRepo budget.BudgetRepository,
	entryRepo ledger.EntryRepository,
	txManager transaction.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	cfg *config.LedgerConfig,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		budgetRepo:      budgetRepo,
		entryRepo:       entryRepo,
		txManager:       txManager,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("ledger-service"),
		defaultCurrency: cfg.DefaultCurrency,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		newID:           uuid.NewString,
	}
}

// mutation 単一予算に対する残高操作
type mutation struct {
	name      string
	direction ledger.Direction
	apply     func(b *budget.Budget, amount decimal.Decimal) (decimal.Decimal, error)
}

var (
	creditMutation = mutation{name: "credit", direction: ledger.DirectionIn, apply: (*budget.Budget).Credit}
	debitMutation  = mutation{name: "debit", direction: ledger.DirectionOut, apply: (*budget.Budget).Debit}
	lockMutation   = mutation{name: "lock", direction: ledger.DirectionLock, apply: (*budget.Budget).Lock}
	unlockMutation = mutation{name: "unlock", direction: ledger.DirectionUnlock, apply: (*budget.Budget).Unlock}
)

// Credit 利用可能残高を増やす
func (s *LedgerApplicationService) Credit(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, req.UserID, req.Amount, req.Operation, creditMutation)
}

// Debit 利用可能残高を減らす
func (s *LedgerApplicationService) Debit(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, req.UserID, req.Amount, req.Operation, debitMutation)
}

// Lock 利用可能残高をロック残高へ移す
func (s *LedgerApplicationService) Lock(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, req.UserID, req.Amount, req.Operation, lockMutation)
}

// Unlock ロック残高を利用可能残高へ戻す
func (s *LedgerApplicationService) Unlock(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
	return s.mutate(ctx, req.UserID, req.Amount, req.Operation, unlockMutation)
}

// Adjust 方向を明示した管理者補正（IN/OUTのみ）
func (s *LedgerApplicationService) Adjust(ctx context.Context, req *AdjustRequest) (*MutationResult, error) {
	if !req.Direction.IsAdjustable() {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidDirection, req.Direction)
	}
	m := creditMutation
	if req.Direction == ledger.DirectionOut {
		m = debitMutation
	}
	m.name = "adjust"
	return s.mutate(ctx, req.UserID, req.Amount, req.Operation, m)
}

// mutate 冪等チェック → 行ロック → 検証 → 残高変更 → エントリ追記を1トランザクションで行う
func (s *LedgerApplicationService) mutate(ctx context.Context, userID int64, rawAmount decimal.Decimal, op ledger.Operation, m mutation) (*MutationResult, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService."+m.name)
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("amount", rawAmount.String()),
		attribute.String("operation_type", op.OperationType),
		attribute.Bool("has_idempotency_key", op.HasIdempotencyKey()),
	)

	// バリデーション（トランザクション開始前）
	amount, err := s.validate(userID, rawAmount, op)
	if err != nil {
		s.fail(ctx, span, m.name, op, err, map[string]interface{}{"user_id": userID})
		return nil, err
	}

	var (
		result   *MutationResult
		applied  decimal.Decimal
		currency string
	)
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		result = nil

		replay, err := s.findReplay(ctx, tx, op.IdempotencyKey)
		if err != nil {
			return err
		}
		if replay != nil {
			result = replayResult(replay)
			return nil
		}

		b, err := s.budgetRepo.FindByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := checkBudget(b, op); err != nil {
			return err
		}

		balanceBefore := b.AvailableBalance()
		applied, err = m.apply(b, amount)
		if err != nil {
			return err
		}
		currency = b.Currency()
		if err := s.budgetRepo.Save(ctx, tx, b); err != nil {
			return fmt.Errorf("failed to save budget: %w", err)
		}

		entry, err := ledger.NewEntry(ledger.EntryParams{
			ID:             s.newID(),
			UserID:         userID,
			Direction:      m.direction,
			OperationType:  op.OperationType,
			Amount:         applied,
			Currency:       b.Currency(),
			BalanceBefore:  balanceBefore,
			BalanceAfter:   b.AvailableBalance(),
			CorrelationID:  op.CorrelationID,
			IdempotencyKey: op.IdempotencyKey,
			Meta:           op.Meta,
		})
		if err != nil {
			return err
		}
		if err := s.entryRepo.Save(ctx, tx, entry); err != nil {
			return err
		}

		result = &MutationResult{
			LogID:         entry.ID(),
			BalanceBefore: entry.BalanceBefore(),
			BalanceAfter:  entry.BalanceAfter(),
		}
		return nil
	})

	// 同じ冪等キーの同時実行に負けた場合は勝者のエントリを返す
	if err != nil && op.HasIdempotencyKey() && errors.Is(err, ledger.ErrDuplicateIdempotencyKey) {
		existing, findErr := s.entryRepo.FindByIdempotencyKey(ctx, nil, op.IdempotencyKey)
		if findErr == nil {
			err = nil
			result = replayResult(existing)
		}
	}

	if err != nil {
		s.fail(ctx, span, m.name, op, err, map[string]interface{}{
			"user_id": userID,
			"amount":  money.Format(amount),
		})
		return nil, err
	}

	if result.Idempotent {
		s.metrics.RecordIdempotentReplay(ctx, m.name)
		s.logger.Info(ctx, "Ledger operation replayed", map[string]interface{}{
			"op":              m.name,
			"user_id":         userID,
			"idempotency_key": op.IdempotencyKey,
			"log_id":          result.LogID,
		})
		return result, nil
	}

	s.metrics.RecordLedgerOperation(ctx, m.name, currency, "ok", applied.InexactFloat64())
	s.logger.Info(ctx, "Ledger operation applied", map[string]interface{}{
		"op":             m.name,
		"user_id":        userID,
		"operation_type": op.OperationType,
		"amount":         money.Format(applied),
		"balance_before": money.Format(result.BalanceBefore),
		"balance_after":  money.Format(result.BalanceAfter),
		"log_id":         result.LogID,
	})

	return result, nil
}

// Transfer 2ユーザー間の振替
// 予算の行ロックは振替方向に関係なくユーザーID昇順で取得する
func (s *LedgerApplicationService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.Transfer")
	defer span.End()

	op := req.Operation
	span.SetAttributes(
		attribute.Int64("from_user_id", req.FromUserID),
		attribute.Int64("to_user_id", req.ToUserID),
		attribute.String("amount", req.Amount.String()),
		attribute.String("operation_type", op.OperationType),
	)

	fields := map[string]interface{}{
		"from_user_id": req.FromUserID,
		"to_user_id":   req.ToUserID,
	}

	amount, err := s.validate(req.FromUserID, req.Amount, op)
	if err == nil && req.ToUserID <= 0 {
		err = budget.ErrInvalidUserID
	}
	if err == nil && req.FromUserID == req.ToUserID {
		err = ledger.ErrSameAccountTransfer
	}
	// 入金側エントリは接尾辞付きのキーを使うため、その分だけ短くなければならない
	if err == nil && utf8.RuneCountInString(op.IdempotencyKey+transferInKeySuffix) > ledger.MaxIdempotencyKeyLength {
		err = fmt.Errorf("%w: IdempotencyKey must have maximum length %d for transfers",
			ledger.ErrInvalidOperation, ledger.MaxIdempotencyKeyLength-utf8.RuneCountInString(transferInKeySuffix))
	}
	if err != nil {
		s.fail(ctx, span, "transfer", op, err, fields)
		return nil, err
	}

	correlationID := op.CorrelationID
	if correlationID == "" {
		correlationID = s.newID()
	}
	inKey := ""
	if op.HasIdempotencyKey() {
		inKey = op.IdempotencyKey + transferInKeySuffix
	}

	var (
		result   *TransferResult
		applied  decimal.Decimal
		currency string
	)
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		result = nil

		replay, err := s.findTransferReplay(ctx, tx, op.IdempotencyKey, inKey)
		if err != nil {
			return err
		}
		if replay != nil {
			result = replay
			return nil
		}

		from, to, err := s.lockPair(ctx, tx, req.FromUserID, req.ToUserID)
		if err != nil {
			return err
		}
		if err := checkBudget(from, op); err != nil {
			return err
		}
		if err := checkBudget(to, op); err != nil {
			return err
		}
		if from.Currency() != to.Currency() {
			return fmt.Errorf("%w: %s -> %s", budget.ErrCurrencyMismatch, from.Currency(), to.Currency())
		}

		fromBefore := from.AvailableBalance()
		toBefore := to.AvailableBalance()
		applied, err = from.Debit(amount)
		if err != nil {
			return err
		}
		if _, err := to.Credit(applied); err != nil {
			return err
		}
		currency = from.Currency()

		for _, b := range ascending(from, to) {
			if err := s.budgetRepo.Save(ctx, tx, b); err != nil {
				return fmt.Errorf("failed to save budget: %w", err)
			}
		}

		toUserID := to.UserID()
		fromUserID := from.UserID()
		outEntry, err := ledger.NewEntry(ledger.EntryParams{
			ID:                 s.newID(),
			UserID:             fromUserID,
			Direction:          ledger.DirectionOut,
			OperationType:      op.OperationType,
			Amount:             applied,
			Currency:           from.Currency(),
			BalanceBefore:      fromBefore,
			BalanceAfter:       from.AvailableBalance(),
			CounterpartyUserID: &toUserID,
			CorrelationID:      correlationID,
			IdempotencyKey:     op.IdempotencyKey,
			Meta:               op.Meta,
		})
		if err != nil {
			return err
		}
		inEntry, err := ledger.NewEntry(ledger.EntryParams{
			ID:                 s.newID(),
			UserID:             toUserID,
			Direction:          ledger.DirectionIn,
			OperationType:      op.OperationType,
			Amount:             applied,
			Currency:           to.Currency(),
			BalanceBefore:      toBefore,
			BalanceAfter:       to.AvailableBalance(),
			CounterpartyUserID: &fromUserID,
			CorrelationID:      correlationID,
			IdempotencyKey:     inKey,
			Meta:               op.Meta,
		})
		if err != nil {
			return err
		}
		if err := s.entryRepo.Save(ctx, tx, outEntry); err != nil {
			return err
		}
		if err := s.entryRepo.Save(ctx, tx, inEntry); err != nil {
			return err
		}

		result = transferResult(outEntry, inEntry, false)
		return nil
	})

	if err != nil && op.HasIdempotencyKey() && errors.Is(err, ledger.ErrDuplicateIdempotencyKey) {
		if replay, findErr := s.findTransferReplay(ctx, nil, op.IdempotencyKey, inKey); findErr == nil && replay != nil {
			err = nil
			result = replay
		}
	}

	if err != nil {
		fields["amount"] = money.Format(amount)
		s.fail(ctx, span, "transfer", op, err, fields)
		return nil, err
	}

	if result.Idempotent {
		s.metrics.RecordIdempotentReplay(ctx, "transfer")
		s.logger.Info(ctx, "Transfer replayed", map[string]interface{}{
			"from_user_id":    req.FromUserID,
			"to_user_id":      req.ToUserID,
			"idempotency_key": op.IdempotencyKey,
			"correlation_id":  result.CorrelationID,
		})
		return result, nil
	}

	s.metrics.RecordLedgerOperation(ctx, "transfer", currency, "ok", applied.InexactFloat64())
	s.logger.Info(ctx, "Transfer applied", map[string]interface{}{
		"from_user_id":   req.FromUserID,
		"to_user_id":     req.ToUserID,
		"amount":         money.Format(applied),
		"correlation_id": result.CorrelationID,
		"from_log_id":    result.FromLogID,
		"to_log_id":      result.ToLogID,
	})

	return result, nil
}

// lockPair 2つの予算をユーザーID昇順でロックし、(from, to)の順で返す
func (s *LedgerApplicationService) lockPair(ctx context.Context, tx *sql.Tx, fromUserID, toUserID int64) (*budget.Budget, *budget.Budget, error) {
	first, second := fromUserID, toUserID
	if second < first {
		first, second = second, first
	}

	locked := make(map[int64]*budget.Budget, 2)
	for _, id := range []int64{first, second} {
		b, err := s.budgetRepo.FindByUserIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = b
	}
	return locked[fromUserID], locked[toUserID], nil
}

// ProvisionBudget 予算を作成し、初期残高があればINエントリとして記録する
func (s *LedgerApplicationService) ProvisionBudget(ctx context.Context, req *ProvisionRequest) (*BudgetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.ProvisionBudget")
	defer span.End()

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	initial := money.Round(req.InitialBalance)

	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.String("currency", currency),
		attribute.String("initial_balance", initial.String()),
	)

	op := ledger.Operation{OperationType: OperationTypeProvision, Currency: currency}
	var err error
	if req.UserID <= 0 {
		err = budget.ErrInvalidUserID
	} else if initial.IsNegative() || initial.GreaterThan(money.MaxAmount) {
		err = budget.ErrInvalidAmount
	} else {
		err = op.Validate()
	}
	if err != nil {
		s.fail(ctx, span, "provision", op, err, map[string]interface{}{"user_id": req.UserID})
		return nil, err
	}

	var created *budget.Budget
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		b, err := budget.NewBudget(req.UserID, money.Zero, money.Zero, currency, budget.StatusActive)
		if err != nil {
			return err
		}
		if err := s.budgetRepo.Create(ctx, tx, b); err != nil {
			return err
		}
		created = b
		if !initial.IsPositive() {
			return nil
		}

		if _, err := b.Credit(initial); err != nil {
			return err
		}
		if err := s.budgetRepo.Save(ctx, tx, b); err != nil {
			return fmt.Errorf("failed to save budget: %w", err)
		}
		entry, err := ledger.NewEntry(ledger.EntryParams{
			ID:             s.newID(),
			UserID:         req.UserID,
			Direction:      ledger.DirectionIn,
			OperationType:  OperationTypeProvision,
			Amount:         initial,
			Currency:       b.Currency(),
			BalanceBefore:  money.Zero,
			BalanceAfter:   b.AvailableBalance(),
			IdempotencyKey: fmt.Sprintf("provision-%d", req.UserID),
		})
		if err != nil {
			return err
		}
		return s.entryRepo.Save(ctx, tx, entry)
	})
	if err != nil {
		s.fail(ctx, span, "provision", op, err, map[string]interface{}{"user_id": req.UserID})
		return nil, err
	}

	s.logger.Info(ctx, "Budget provisioned", map[string]interface{}{
		"user_id":         req.UserID,
		"currency":        created.Currency(),
		"initial_balance": money.Format(initial),
	})

	return newBudgetResponse(created), nil
}

// SetBudgetStatus 予算の凍結・凍結解除
func (s *LedgerApplicationService) SetBudgetStatus(ctx context.Context, userID int64, status string) (*BudgetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.SetBudgetStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("status", status),
	)

	newStatus, err := budget.NewStatus(status)
	if err == nil && userID <= 0 {
		err = budget.ErrInvalidUserID
	}
	if err != nil {
		s.fail(ctx, span, "set_status", ledger.Operation{}, err, map[string]interface{}{"user_id": userID})
		return nil, err
	}

	var updated *budget.Budget
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		b, err := s.budgetRepo.FindByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := b.ChangeStatus(newStatus); err != nil {
			return err
		}
		if err := s.budgetRepo.Save(ctx, tx, b); err != nil {
			return fmt.Errorf("failed to save budget: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		s.fail(ctx, span, "set_status", ledger.Operation{}, err, map[string]interface{}{"user_id": userID})
		return nil, err
	}

	s.logger.Info(ctx, "Budget status changed", map[string]interface{}{
		"user_id": userID,
		"status":  newStatus.String(),
	})

	return newBudgetResponse(updated), nil
}

// GetCurrentBudget 予算のスナップショットを取得（存在しなければErrBudgetNotFound）
func (s *LedgerApplicationService) GetCurrentBudget(ctx context.Context, userID int64) (*BudgetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.GetCurrentBudget")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	b, err := s.budgetRepo.FindByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if !errors.Is(err, budget.ErrBudgetNotFound) {
			s.logger.Error(ctx, "Failed to find budget", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	return newBudgetResponse(b), nil
}

// GetLedgerEntries 台帳エントリを新しい順に取得
func (s *LedgerApplicationService) GetLedgerEntries(ctx context.Context, req *EntriesRequest) (*EntriesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.GetLedgerEntries")
	defer span.End()

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.String("operation_type", req.OperationType),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	filter := ledger.Filter{OperationType: req.OperationType, RoomID: req.RoomID}

	entries, err := s.entryRepo.FindByUserID(ctx, req.UserID, filter, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to find ledger entries", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}

	total, err := s.entryRepo.CountByUserID(ctx, req.UserID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	resp := &EntriesResponse{
		Entries: make([]EntryResponse, 0, len(entries)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, newEntryResponse(e))
	}
	return resp, nil
}

// validate トランザクション開始前の入力検証
// 金額は丸めずに返す（丸めは変更後の残高に対して行う）
func (s *LedgerApplicationService) validate(userID int64, amount decimal.Decimal, op ledger.Operation) (decimal.Decimal, error) {
	if userID <= 0 {
		return decimal.Zero, budget.ErrInvalidUserID
	}
	rounded := money.Round(amount)
	if !amount.IsPositive() || !rounded.IsPositive() || rounded.GreaterThan(money.MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s", ledger.ErrInvalidAmount, amount.String())
	}
	if err := op.Validate(); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// findReplay 冪等キーに対応する既存エントリを探す（なければnil）
func (s *LedgerApplicationService) findReplay(ctx context.Context, tx *sql.Tx, key string) (*ledger.Entry, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.entryRepo.FindByIdempotencyKey(ctx, tx, key)
	if errors.Is(err, ledger.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return existing, nil
}

// findTransferReplay 振替の両エントリを冪等キーで探す
func (s *LedgerApplicationService) findTransferReplay(ctx context.Context, tx *sql.Tx, outKey, inKey string) (*TransferResult, error) {
	outEntry, err := s.findReplay(ctx, tx, outKey)
	if err != nil || outEntry == nil {
		return nil, err
	}
	inEntry, err := s.findReplay(ctx, tx, inKey)
	if err != nil {
		return nil, err
	}
	return transferResult(outEntry, inEntry, true), nil
}

// fail スパン・ログ・メトリクスにエラーを記録
func (s *LedgerApplicationService) fail(ctx context.Context, span trace.Span, op string, operation ledger.Operation, err error, fields map[string]interface{}) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	code := errcode.Code(err)
	fields["op"] = op
	fields["code"] = code
	if operation.IdempotencyKey != "" {
		fields["idempotency_key"] = operation.IdempotencyKey
	}

	if code == errcode.CodeInternal {
		s.logger.Error(ctx, "Ledger operation failed", err, fields)
		s.metrics.RecordError(ctx, op+"_failed")
	} else {
		s.logger.Warn(ctx, "Ledger operation rejected", fields)
	}
	s.metrics.RecordLedgerOperation(ctx, op, operation.Currency, code, 0)
}

// checkBudget 凍結状態と通貨指定を確認
func checkBudget(b *budget.Budget, op ledger.Operation) error {
	if err := b.EnsureActive(); err != nil {
		return err
	}
	if op.Currency != "" && !strings.EqualFold(op.Currency, b.Currency()) {
		return fmt.Errorf("%w: budget is %s, operation is %s", budget.ErrCurrencyMismatch, b.Currency(), op.Currency)
	}
	return nil
}

func ascending(a, b *budget.Budget) []*budget.Budget {
	if b.UserID() < a.UserID() {
		return []*budget.Budget{b, a}
	}
	return []*budget.Budget{a, b}
}

func replayResult(e *ledger.Entry) *MutationResult {
	return &MutationResult{
		LogID:         e.ID(),
		BalanceBefore: e.BalanceBefore(),
		BalanceAfter:  e.BalanceAfter(),
		Idempotent:    true,
	}
}

func transferResult(outEntry, inEntry *ledger.Entry, idempotent bool) *TransferResult {
	r := &TransferResult{
		FromLogID:         outEntry.ID(),
		FromBalanceBefore: outEntry.BalanceBefore(),
		FromBalanceAfter:  outEntry.BalanceAfter(),
		Idempotent:        idempotent,
	}
	if outEntry.CorrelationID() != nil {
		r.CorrelationID = *outEntry.CorrelationID()
	}
	if inEntry != nil {
		r.ToLogID = inEntry.ID()
		r.ToBalanceBefore = inEntry.BalanceBefore()
		r.ToBalanceAfter = inEntry.BalanceAfter()
	}
	return r
}
