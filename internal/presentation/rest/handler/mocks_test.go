package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"

	cancellationapp "room-ledger/internal/application/cancellation"
	ledgerapp "room-ledger/internal/application/ledger"
	settlementapp "room-ledger/internal/application/settlement"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
	restmiddleware "room-ledger/internal/presentation/rest/middleware"
)

// MockLedgerService モック台帳サービス
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Credit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.MutationResult), args.Error(1)
}

func (m *MockLedgerService) Debit(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.MutationResult), args.Error(1)
}

func (m *MockLedgerService) Lock(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.MutationResult), args.Error(1)
}

func (m *MockLedgerService) Unlock(ctx context.Context, req *ledgerapp.MutationRequest) (*ledgerapp.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.MutationResult), args.Error(1)
}

func (m *MockLedgerService) Adjust(ctx context.Context, req *ledgerapp.AdjustRequest) (*ledgerapp.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.MutationResult), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, req *ledgerapp.TransferRequest) (*ledgerapp.TransferResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.TransferResult), args.Error(1)
}

func (m *MockLedgerService) ProvisionBudget(ctx context.Context, req *ledgerapp.ProvisionRequest) (*ledgerapp.BudgetResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.BudgetResponse), args.Error(1)
}

func (m *MockLedgerService) SetBudgetStatus(ctx context.Context, userID int64, status string) (*ledgerapp.BudgetResponse, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.BudgetResponse), args.Error(1)
}

func (m *MockLedgerService) GetCurrentBudget(ctx context.Context, userID int64) (*ledgerapp.BudgetResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.BudgetResponse), args.Error(1)
}

func (m *MockLedgerService) GetLedgerEntries(ctx context.Context, req *ledgerapp.EntriesRequest) (*ledgerapp.EntriesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.EntriesResponse), args.Error(1)
}

// MockSettlementService モック精算サービス
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) SettleRoom(ctx context.Context, roomID int64) (*settlementapp.SettlementResult, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlementapp.SettlementResult), args.Error(1)
}

// MockCancellationService モックキャンセルサービス
type MockCancellationService struct {
	mock.Mock
}

func (m *MockCancellationService) CancelRoom(ctx context.Context, roomID int64) (*cancellationapp.CancelResult, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cancellationapp.CancelResult), args.Error(1)
}

func (m *MockCancellationService) KickMember(ctx context.Context, roomID, userID int64) (*cancellationapp.KickResult, error) {
	args := m.Called(ctx, roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cancellationapp.KickResult), args.Error(1)
}

// MockHealthChecker モックヘルスチェッカー
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// newTestEcho エラーハンドリングミドルウェア付きのEchoを作成
func newTestEcho() *echo.Echo {
	e := echo.New()
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &bytes.Buffer{}, otelinfra.LogLevelError)
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
	return e
}

// doRequest リクエストを送ってレスポンスを返す
func doRequest(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
