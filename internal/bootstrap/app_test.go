package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"room-ledger/internal/domain/room"
	"room-ledger/internal/infrastructure/config"
	otelinfra "room-ledger/internal/infrastructure/observability/otel"
	"room-ledger/internal/infrastructure/persistence/mysql"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			DefaultCurrency:   "VIRTUAL",
			SettlementLockTTL: time.Minute,
			DefaultPageSize:   50,
			MaxPageSize:       100,
		},
	}
}

func newTestLogger() *otelinfra.Logger {
	return otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &bytes.Buffer{}, otelinfra.LogLevelError)
}

func TestNewWithDB(t *testing.T) {
	t.Run("正常系: Redis無効ならNoopGuard", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)

		app, err := NewWithDB(context.Background(), newTestConfig(), &mysql.DB{DB: sqlDB}, newTestLogger(), nil)
		require.NoError(t, err)

		assert.NotNil(t, app.Ledger)
		assert.NotNil(t, app.Rake)
		assert.NotNil(t, app.Settlement)
		assert.NotNil(t, app.Cancellation)

		// ガードなしでそのままルームの読み込みに進む
		mock.ExpectQuery("FROM rooms").WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)
		_, err = app.Settlement.SettleRoom(context.Background(), 42)
		assert.ErrorIs(t, err, room.ErrRoomNotFound)

		mock.ExpectClose()
		assert.NoError(t, app.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("正常系: Redis有効ならRedisの精算ガード", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)

		cfg := newTestConfig()
		cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port, Enabled: true}

		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)

		app, err := NewWithDB(context.Background(), cfg, &mysql.DB{DB: sqlDB}, newTestLogger(), nil)
		require.NoError(t, err)

		// 他のプロセスが精算中ならDBに触れずに拒否する
		require.NoError(t, mr.Set("settlement-lock:42", "other-worker"))
		_, err = app.Settlement.SettleRoom(context.Background(), 42)
		assert.ErrorIs(t, err, room.ErrSettlementInProgress)
		assert.Equal(t, "other-worker", mustGet(t, mr, "settlement-lock:42"))

		// ガードが外れれば精算処理に進む
		mr.Del("settlement-lock:42")
		mock.ExpectQuery("FROM rooms").WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)
		_, err = app.Settlement.SettleRoom(context.Background(), 42)
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
		assert.False(t, mr.Exists("settlement-lock:42"))

		mock.ExpectClose()
		assert.NoError(t, app.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("異常系: Redisに接続できない", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)
		mr.Close()

		cfg := newTestConfig()
		cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: port, Enabled: true}

		sqlDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		app, err := NewWithDB(context.Background(), cfg, &mysql.DB{DB: sqlDB}, newTestLogger(), nil)
		assert.Error(t, err)
		assert.Nil(t, app)
	})
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
