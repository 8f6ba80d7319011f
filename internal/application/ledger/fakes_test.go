package ledger

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"room-ledger/internal/domain/budget"
	"room-ledger/internal/domain/ledger"
	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

// MockBudgetRepository モック予算リポジトリ
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) FindByUserID(ctx context.Context, userID int64) (*budget.Budget, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByUserIDForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*budget.Budget, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.Budget), args.Error(1)
}

func (m *MockBudgetRepository) Save(ctx context.Context, tx *sql.Tx, b *budget.Budget) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBudgetRepository) Create(ctx context.Context, tx *sql.Tx, b *budget.Budget) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

// MockEntryRepository モック台帳エントリリポジトリ
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Save(ctx context.Context, tx *sql.Tx, e *ledger.Entry) error {
	args := m.Called(ctx, tx, e)
	return args.Error(0)
}

func (m *MockEntryRepository) FindByIdempotencyKey(ctx context.Context, tx *sql.Tx, key string) (*ledger.Entry, error) {
	args := m.Called(ctx, tx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockEntryRepository) FindByUserID(ctx context.Context, userID int64, filter ledger.Filter, limit, offset int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockEntryRepository) CountByUserID(ctx context.Context, userID int64, filter ledger.Filter) (int, error) {
	args := m.Called(ctx, userID, filter)
	return args.Int(0), args.Error(1)
}

// MockTransactionManager モックトランザクションマネージャー
// 実際のトランザクションは使わず、関数を直接実行する
type MockTransactionManager struct {
	mu    sync.Mutex
	calls int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(nil)
}

// memoryStore 予算とエントリを保持するインメモリストア
// FindByUserIDForUpdateで取った行ロックはトランザクション終了まで保持する
// トランザクションがエラーで終わった場合はそのトランザクションの変更だけを戻す
type memoryStore struct {
	mu      sync.Mutex
	budgets map[int64]budgetRow
	entries []*ledger.Entry
	keys    map[string]*ledger.Entry
	locks   []int64
	txLocks [][]int64
	rows    map[int64]*sync.Mutex
	txs     map[*sql.Tx]*memoryTx

	// lockDelay 行ロック取得後の待ち時間。並行実行のテストで処理を交互に進めるために使う
	lockDelay time.Duration
}

type budgetRow struct {
	available decimal.Decimal
	locked    decimal.Decimal
	currency  string
	status    budget.Status
}

// memoryTx トランザクション中に取得したロックと取り消し用の記録
type memoryTx struct {
	held    []int64
	before  map[int64]*budgetRow
	keys    []string
	entries map[*ledger.Entry]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		budgets: make(map[int64]budgetRow),
		keys:    make(map[string]*ledger.Entry),
		rows:    make(map[int64]*sync.Mutex),
		txs:     make(map[*sql.Tx]*memoryTx),
	}
}

func (s *memoryStore) seed(userID int64, available, locked string, status budget.Status) {
	s.budgets[userID] = budgetRow{
		available: decimal.RequireFromString(available),
		locked:    decimal.RequireFromString(locked),
		currency:  "VIRTUAL",
		status:    status,
	}
}

// WithTransaction トランザクションごとに別の*sql.Txを識別子として渡す
// 終了時に行ロックを解放し、失敗時はこのトランザクションの変更を戻す
func (s *memoryStore) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx := new(sql.Tx)
	state := &memoryTx{
		before:  make(map[int64]*budgetRow),
		entries: make(map[*ledger.Entry]struct{}),
	}
	s.mu.Lock()
	s.txs[tx] = state
	s.mu.Unlock()

	err := fn(tx)

	s.mu.Lock()
	if err != nil {
		s.rollback(state)
	}
	delete(s.txs, tx)
	s.txLocks = append(s.txLocks, append([]int64(nil), state.held...))
	rows := make([]*sync.Mutex, 0, len(state.held))
	for _, id := range state.held {
		rows = append(rows, s.rows[id])
	}
	s.mu.Unlock()

	for i := len(rows) - 1; i >= 0; i-- {
		rows[i].Unlock()
	}
	return err
}

// rollback s.muを保持した状態で呼ぶ
func (s *memoryStore) rollback(state *memoryTx) {
	for id, row := range state.before {
		if row == nil {
			delete(s.budgets, id)
			continue
		}
		s.budgets[id] = *row
	}
	for _, key := range state.keys {
		delete(s.keys, key)
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if _, ok := state.entries[e]; !ok {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// rememberRow 最初の書き込み前の行を記録する。s.muを保持した状態で呼ぶ
func (s *memoryStore) rememberRow(tx *sql.Tx, userID int64) {
	state, ok := s.txs[tx]
	if !ok {
		return
	}
	if _, done := state.before[userID]; done {
		return
	}
	if row, exists := s.budgets[userID]; exists {
		state.before[userID] = &row
		return
	}
	state.before[userID] = nil
}

func (s *memoryStore) load(userID int64) (*budget.Budget, error) {
	row, ok := s.budgets[userID]
	if !ok {
		return nil, budget.ErrBudgetNotFound
	}
	return budget.NewBudget(userID, row.available, row.locked, row.currency, row.status)
}

func (s *memoryStore) FindByUserID(ctx context.Context, userID int64) (*budget.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

// FindByUserIDForUpdate 行ロックを取得してから読む。同じトランザクション内の再取得はロックしない
func (s *memoryStore) FindByUserIDForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*budget.Budget, error) {
	s.mu.Lock()
	state := s.txs[tx]
	row, ok := s.rows[userID]
	if !ok {
		row = &sync.Mutex{}
		s.rows[userID] = row
	}
	held := false
	if state != nil {
		for _, id := range state.held {
			if id == userID {
				held = true
			}
		}
	}
	s.mu.Unlock()

	if state != nil && !held {
		row.Lock()
		s.mu.Lock()
		state.held = append(state.held, userID)
		s.mu.Unlock()
		if s.lockDelay > 0 {
			time.Sleep(s.lockDelay)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, userID)
	return s.load(userID)
}

func (s *memoryStore) Save(ctx context.Context, tx *sql.Tx, b *budget.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberRow(tx, b.UserID())
	s.budgets[b.UserID()] = budgetRow{
		available: b.AvailableBalance(),
		locked:    b.LockedBalance(),
		currency:  b.Currency(),
		status:    b.Status(),
	}
	return nil
}

func (s *memoryStore) Create(ctx context.Context, tx *sql.Tx, b *budget.Budget) error {
	s.mu.Lock()
	exists := false
	if _, ok := s.budgets[b.UserID()]; ok {
		exists = true
	}
	s.mu.Unlock()
	if exists {
		return budget.ErrBudgetAlreadyExists
	}
	return s.Save(ctx, tx, b)
}

// entryStore memoryStoreのエントリ側ビュー
type entryStore struct {
	*memoryStore
}

func (s entryStore) Save(ctx context.Context, tx *sql.Tx, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key := e.IdempotencyKey(); key != nil {
		if _, ok := s.keys[*key]; ok {
			return ledger.ErrDuplicateIdempotencyKey
		}
		s.keys[*key] = e
	}
	s.entries = append(s.entries, e)
	if state, ok := s.txs[tx]; ok {
		state.entries[e] = struct{}{}
		if key := e.IdempotencyKey(); key != nil {
			state.keys = append(state.keys, *key)
		}
	}
	return nil
}

func (s entryStore) FindByIdempotencyKey(ctx context.Context, tx *sql.Tx, key string) (*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	return e, nil
}

func (s entryStore) filtered(userID int64, filter ledger.Filter) []*ledger.Entry {
	var out []*ledger.Entry
	for _, e := range s.entries {
		if e.UserID() != userID {
			continue
		}
		if filter.OperationType != "" && e.OperationType() != filter.OperationType {
			continue
		}
		if filter.RoomID != nil && (e.RoomID() == nil || *e.RoomID() != *filter.RoomID) {
			continue
		}
		out = append(out, e)
	}
	// 新しい順
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (s entryStore) FindByUserID(ctx context.Context, userID int64, filter ledger.Filter, limit, offset int) ([]*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filtered(userID, filter)
	if offset >= len(all) {
		return []*ledger.Entry{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s entryStore) CountByUserID(ctx context.Context, userID int64, filter ledger.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered(userID, filter)), nil
}

func (s *memoryStore) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memoryStore) balances(userID int64) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.budgets[userID]
	return row.available.StringFixed(2), row.locked.StringFixed(2)
}

var testLedgerConfig = &config.LedgerConfig{
	DefaultCurrency: "VIRTUAL",
	DefaultPageSize: 50,
	MaxPageSize:     100,
}

func newTestObservability(t *testing.T) (*otelinfra.Logger, *otelinfra.Metrics) {
	t.Helper()
	logger := otelinfra.NewLoggerWithWriter(otel.Tracer("test"), io.Discard, otelinfra.LogLevelDebug)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	return logger, metrics
}

// newMemoryService インメモリストアを使うサービスを作成
func newMemoryService(t *testing.T, store *memoryStore) *LedgerApplicationService {
	t.Helper()
	logger, metrics := newTestObservability(t)
	return NewLedgerApplicationService(store, entryStore{store}, store, logger, metrics, testLedgerConfig)
}

// newMockService モックを使うサービスを作成
func newMockService(t *testing.T, br *MockBudgetRepository, er *MockEntryRepository) *LedgerApplicationService {
	t.Helper()
	logger, metrics := newTestObservability(t)
	return NewLedgerApplicationService(br, er, &MockTransactionManager{}, logger, metrics, testLedgerConfig)
}
