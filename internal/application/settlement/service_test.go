package settlement

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	ledgerapp "room-ledger/internal/application/ledger"
	"room-ledger/internal/domain/budget"
	"room-ledger/internal/domain/payout"
	"room-ledger/internal/domain/room"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
)

// MockRoomRepository モックルームリポジトリ
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) FindByID(ctx context.Context, roomID int64) (*room.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Room), args.Error(1)
}

func (m *MockRoomRepository) FindMembers(ctx context.Context, roomID int64) ([]*room.Member, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*room.Member), args.Error(1)
}

func (m *MockRoomRepository) FindMember(ctx context.Context, roomID, userID int64) (*room.Member, error) {
	args := m.Called(ctx, roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Member), args.Error(1)
}

func (m *MockRoomRepository) FindLeaderboard(ctx context.Context, roomID int64) ([]room.LeaderboardEntry, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]room.LeaderboardEntry), args.Error(1)
}

func (m *MockRoomRepository) UpdateStatus(ctx context.Context, roomID int64, status room.Status) error {
	args := m.Called(ctx, roomID, status)
	return args.Error(0)
}

func (m *MockRoomRepository) UpdateMemberStatus(ctx context.Context, roomID, userID int64, status room.MemberStatus) error {
	args := m.Called(ctx, roomID, userID, status)
	return args.Error(0)
}

func (m *MockRoomRepository) CancelMemberships(ctx context.Context, roomID int64) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCrediter モック台帳
type MockCrediter struct {
	mock.Mock
}

func (m *MockCrediter) Credit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.MutationResult), args.Error(1)
}

// MockRakeCollector モックレーキ徴収
type MockRakeCollector struct {
	mock.Mock
}

func (m *MockRakeCollector) CollectRake(ctx context.Context, roomID int64, pool decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, roomID, pool)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// stubGuard 取得エラーと解放回数を制御するガード
type stubGuard struct {
	err      error
	released int
}

func (g *stubGuard) Acquire(ctx context.Context, roomID int64) (room.ReleaseFunc, error) {
	if g.err != nil {
		return nil, g.err
	}
	return func(context.Context) error {
		g.released++
		return nil
	}, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T, rr *MockRoomRepository, cr *MockCrediter, rc *MockRakeCollector, guard room.SettlementGuard) *SettlementApplicationService {
	t.Helper()
	logger := otelinfra.NewLoggerWithWriter(otel.Tracer("test"), io.Discard, otelinfra.LogLevelDebug)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	svc := NewSettlementApplicationService(rr, cr, rc, guard, logger, metrics)
	svc.newID = func() string { return "fixed-uuid" }
	return svc
}

func leaderboard(n int) []room.LeaderboardEntry {
	entries := make([]room.LeaderboardEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, room.LeaderboardEntry{
			UserID: int64(100 + i),
			Rank:   i,
			PnLAbs: decimal.NewFromInt(int64(1000 - 300*i)),
		})
	}
	return entries
}

func creditedFor(userID int64, amount string) interface{} {
	return mock.MatchedBy(func(req *ledgerapp.MutationRequest) bool {
		return req.UserID == userID && req.Amount.Equal(dec(amount))
	})
}

func TestSettlementApplicationService_SettleRoom(t *testing.T) {
	t.Run("正常系: tieredモデルで全員に入金しルームをsettledにする", func(t *testing.T) {
		rr, cr, rc := new(MockRoomRepository), new(MockCrediter), new(MockRakeCollector)
		guard := &stubGuard{}
		svc := newTestService(t, rr, cr, rc, guard)

		rr.On("FindByID", mock.Anything, int64(9)).
			Return(room.NewRoom(9, room.StatusCompleted, dec("1000"), "VIRTUAL", payout.ModelTiered), nil)
		rr.On("FindLeaderboard", mock.Anything, int64(9)).Return(leaderboard(5), nil)
		rc.On("CollectRake", mock.Anything, int64(9), mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(dec("5000"))
		})).Return(dec("500"), nil)

		// pool 4500: 賞金プール4050 (50/30/20)、返金プール450を4位・5位で分配
		cr.On("Credit", mock.Anything, creditedFor(101, "2025")).Return(&ledgerapp.MutationResult{LogID: "l1"}, nil)
		cr.On("Credit", mock.Anything, creditedFor(102, "1215")).Return(&ledgerapp.MutationResult{LogID: "l2"}, nil)
		cr.On("Credit", mock.Anything, creditedFor(103, "810")).Return(&ledgerapp.MutationResult{LogID: "l3"}, nil)
		cr.On("Credit", mock.Anything, creditedFor(104, "225")).Return(&ledgerapp.MutationResult{LogID: "l4"}, nil)
		cr.On("Credit", mock.Anything, creditedFor(105, "225")).Return(&ledgerapp.MutationResult{LogID: "l5", Idempotent: true}, nil)
		rr.On("UpdateStatus", mock.Anything, int64(9), room.StatusSettled).Return(nil)

		got, err := svc.SettleRoom(context.Background(), 9)
		require.NoError(t, err)

		assert.Equal(t, 5, got.SettledCount)
		assert.Equal(t, 0, got.FailedCount)
		assert.Equal(t, "5000.00", got.TotalPool.StringFixed(2))
		assert.Equal(t, "500.00", got.RakeAmount.StringFixed(2))
		assert.Equal(t, "4500.00", got.PoolAfterRake.StringFixed(2))
		assert.Equal(t, "room-9-settlement-fixed-uuid", got.CorrelationID)
		require.Len(t, got.Results, 5)
		assert.Equal(t, StatusCredited, got.Results[0].Status)
		assert.Equal(t, StatusReplayed, got.Results[4].Status)

		total := decimal.Zero
		for _, r := range got.Results {
			total = total.Add(r.Amount)
		}
		assert.True(t, total.Equal(got.PoolAfterRake))

		// 全入金が同じ相関IDとユーザー別の冪等キーを持つ
		for _, call := range cr.Calls {
			req := call.Arguments.Get(1).(*ledgerapp.MutationRequest)
			assert.Equal(t, "room-9-settlement-fixed-uuid", req.Operation.CorrelationID)
			assert.Equal(t, SettlementKey(req.UserID, 9), req.Operation.IdempotencyKey)
			assert.Equal(t, OperationTypeSettlementWin, req.Operation.OperationType)
			assert.Equal(t, int64(9), req.Operation.Meta["room_id"])
		}

		assert.Equal(t, 1, guard.released)
		rr.AssertExpectations(t)
		cr.AssertExpectations(t)
		rc.AssertExpectations(t)
	})

	t.Run("正常系: 1件の失敗でループを止めない", func(t *testing.T) {
		rr, cr, rc := new(MockRoomRepository), new(MockCrediter), new(MockRakeCollector)
		svc := newTestService(t, rr, cr, rc, nil)

		rr.On("FindByID", mock.Anything, int64(9)).
			Return(room.NewRoom(9, room.StatusCompleted, dec("100"), "VIRTUAL", payout.ModelProportional), nil)
		rr.On("FindLeaderboard", mock.Anything, int64(9)).Return([]room.LeaderboardEntry{
			{UserID: 1, Rank: 1, PnLAbs: dec("300")},
			{UserID: 2, Rank: 2, PnLAbs: dec("100")},
			{UserID: 3, Rank: 3, PnLAbs: dec("-50")},
		}, nil)
		rc.On("CollectRake", mock.Anything, int64(9), mock.Anything).Return(decimal.Zero, nil)

		cr.On("Credit", mock.Anything, creditedFor(1, "225")).Return(nil, budget.ErrBudgetFrozen)
		cr.On("Credit", mock.Anything, creditedFor(2, "75")).Return(&ledgerapp.MutationResult{LogID: "l2"}, nil)
		rr.On("UpdateStatus", mock.Anything, int64(9), room.StatusSettled).Return(nil)

		got, err := svc.SettleRoom(context.Background(), 9)
		require.NoError(t, err)

		assert.Equal(t, 1, got.SettledCount)
		assert.Equal(t, 1, got.FailedCount)
		assert.Equal(t, StatusFailed, got.Results[0].Status)
		assert.Equal(t, "BUDGET_FROZEN", got.Results[0].Error)
		assert.Equal(t, StatusCredited, got.Results[1].Status)
		assert.Equal(t, StatusSkipped, got.Results[2].Status)
		cr.AssertNumberOfCalls(t, "Credit", 2)
		rr.AssertExpectations(t)
	})

	t.Run("正常系: fixedレーキがプールを超える場合はプール全額で打ち切る", func(t *testing.T) {
		rr, cr, rc := new(MockRoomRepository), new(MockCrediter), new(MockRakeCollector)
		svc := newTestService(t, rr, cr, rc, nil)

		rr.On("FindByID", mock.Anything, int64(9)).
			Return(room.NewRoom(9, room.StatusCompleted, dec("10"), "VIRTUAL", payout.ModelWinnerTakeAll), nil)
		rr.On("FindLeaderboard", mock.Anything, int64(9)).Return(leaderboard(2), nil)
		rc.On("CollectRake", mock.Anything, int64(9), mock.Anything).Return(dec("50"), nil)
		rr.On("UpdateStatus", mock.Anything, int64(9), room.StatusSettled).Return(nil)

		got, err := svc.SettleRoom(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, "20.00", got.RakeAmount.StringFixed(2))
		assert.True(t, got.PoolAfterRake.IsZero())
		assert.Equal(t, 0, got.SettledCount)
		cr.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
	})

	errCases := []struct {
		name    string
		setup   func(*MockRoomRepository, *MockRakeCollector)
		guard   *stubGuard
		wantErr error
		wantMsg string
	}{
		{
			name: "異常系: ルームなし",
			setup: func(rr *MockRoomRepository, rc *MockRakeCollector) {
				rr.On("FindByID", mock.Anything, int64(9)).Return(nil, room.ErrRoomNotFound)
			},
			wantErr: room.ErrRoomNotFound,
		},
		{
			name: "異常系: 完了していない",
			setup: func(rr *MockRoomRepository, rc *MockRakeCollector) {
				rr.On("FindByID", mock.Anything, int64(9)).
					Return(room.NewRoom(9, room.StatusActive, dec("10"), "VIRTUAL", payout.ModelTiered), nil)
			},
			wantErr: room.ErrRoomNotCompleted,
		},
		{
			name: "異常系: リーダーボードが空",
			setup: func(rr *MockRoomRepository, rc *MockRakeCollector) {
				rr.On("FindByID", mock.Anything, int64(9)).
					Return(room.NewRoom(9, room.StatusCompleted, dec("10"), "VIRTUAL", payout.ModelTiered), nil)
				rr.On("FindLeaderboard", mock.Anything, int64(9)).Return([]room.LeaderboardEntry{}, nil)
			},
			wantErr: room.ErrNoLeaderboard,
		},
		{
			name: "異常系: レーキ徴収エラー",
			setup: func(rr *MockRoomRepository, rc *MockRakeCollector) {
				rr.On("FindByID", mock.Anything, int64(9)).
					Return(room.NewRoom(9, room.StatusCompleted, dec("10"), "VIRTUAL", payout.ModelTiered), nil)
				rr.On("FindLeaderboard", mock.Anything, int64(9)).Return(leaderboard(1), nil)
				rc.On("CollectRake", mock.Anything, int64(9), mock.Anything).Return(decimal.Zero, errors.New("db down"))
			},
			wantMsg: "db down",
		},
		{
			name:    "異常系: 精算実行中",
			setup:   func(rr *MockRoomRepository, rc *MockRakeCollector) {},
			guard:   &stubGuard{err: room.ErrSettlementInProgress},
			wantErr: room.ErrSettlementInProgress,
		},
	}

	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			rr, cr, rc := new(MockRoomRepository), new(MockCrediter), new(MockRakeCollector)
			tt.setup(rr, rc)
			guard := tt.guard
			if guard == nil {
				guard = &stubGuard{}
			}
			svc := newTestService(t, rr, cr, rc, guard)

			got, err := svc.SettleRoom(context.Background(), 9)
			assert.Nil(t, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantMsg))
			}
			rr.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			cr.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything)
			if tt.guard == nil {
				assert.Equal(t, 1, guard.released)
			}
		})
	}

	t.Run("異常系: settled更新失敗でも結果を返す", func(t *testing.T) {
		rr, cr, rc := new(MockRoomRepository), new(MockCrediter), new(MockRakeCollector)
		svc := newTestService(t, rr, cr, rc, nil)

		rr.On("FindByID", mock.Anything, int64(9)).
			Return(room.NewRoom(9, room.StatusCompleted, dec("10"), "VIRTUAL", payout.ModelWinnerTakeAll), nil)
		rr.On("FindLeaderboard", mock.Anything, int64(9)).Return(leaderboard(1), nil)
		rc.On("CollectRake", mock.Anything, int64(9), mock.Anything).Return(decimal.Zero, nil)
		cr.On("Credit", mock.Anything, creditedFor(101, "10")).Return(&ledgerapp.MutationResult{LogID: "l1"}, nil)
		rr.On("UpdateStatus", mock.Anything, int64(9), room.StatusSettled).Return(errors.New("lost connection"))

		got, err := svc.SettleRoom(context.Background(), 9)
		require.Error(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 1, got.SettledCount)
	})
}

func TestSettlementKey(t *testing.T) {
	assert.Equal(t, "settlement-7-42", SettlementKey(7, 42))
}
