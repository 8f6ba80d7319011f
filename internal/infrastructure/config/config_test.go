package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantError   bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "正常系: デフォルト値で設定を読み込む",
			env: map[string]string{
				"ADMIN_API_KEY": "test-key",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "room_ledger", cfg.Database.Database)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 3306, cfg.Database.Port)
				assert.Equal(t, 5, cfg.Database.LockWaitTimeout)
				assert.Equal(t, "VIRTUAL", cfg.Ledger.DefaultCurrency)
				assert.Equal(t, 5*time.Minute, cfg.Ledger.SettlementLockTTL)
				assert.Equal(t, 50, cfg.Ledger.DefaultPageSize)
				assert.Equal(t, 100, cfg.Ledger.MaxPageSize)
				assert.False(t, cfg.Redis.Enabled)
				assert.True(t, cfg.AdminAPI.Enabled)
				assert.Empty(t, cfg.AdminAPI.AllowedIPs)
				assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "正常系: 環境変数から設定を読み込む",
			env: map[string]string{
				"ENVIRONMENT":                "production",
				"SERVER_PORT":                "9000",
				"DB_HOST":                    "db.example.com",
				"DB_PORT":                    "3307",
				"DB_NAME":                    "prod_ledger",
				"ADMIN_API_KEY":              "prod-key",
				"ADMIN_API_ALLOWED_IPS":      "10.0.0.1, 10.0.0.2",
				"LEDGER_DEFAULT_CURRENCY":    "coin",
				"LEDGER_SETTLEMENT_LOCK_TTL": "30s",
				"REDIS_ENABLED":              "true",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "production", cfg.Environment)
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "db.example.com", cfg.Database.Host)
				assert.Equal(t, 3307, cfg.Database.Port)
				assert.Equal(t, "prod_ledger", cfg.Database.Database)
				assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.AdminAPI.AllowedIPs)
				assert.Equal(t, "COIN", cfg.Ledger.DefaultCurrency)
				assert.Equal(t, 30*time.Second, cfg.Ledger.SettlementLockTTL)
				assert.True(t, cfg.Redis.Enabled)
			},
		},
		{
			name: "正常系: 管理APIが無効ならAPIキーは不要",
			env: map[string]string{
				"ADMIN_API_ENABLED": "false",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.AdminAPI.Enabled)
			},
		},
		{
			name:      "異常系: ADMIN_API_KEYが空",
			env:       map[string]string{},
			wantError: true,
		},
		{
			name: "異常系: ページサイズの上限が既定値より小さい",
			env: map[string]string{
				"ADMIN_API_KEY":            "test-key",
				"LEDGER_DEFAULT_PAGE_SIZE": "50",
				"LEDGER_MAX_PAGE_SIZE":     "10",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 他のテストの環境変数の影響を受けないようにする
			for _, key := range []string{"ADMIN_API_KEY", "ADMIN_API_ENABLED", "DB_HOST", "DB_NAME"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		User:            "ledger",
		Password:        "secret",
		Host:            "localhost",
		Port:            3306,
		Database:        "room_ledger",
		LockWaitTimeout: 3,
	}

	dsn := cfg.DSN()
	assert.Equal(t,
		"ledger:secret@tcp(localhost:3306)/room_ledger?charset=utf8mb4&parseTime=True&loc=UTC&innodb_lock_wait_timeout=3",
		dsn,
	)
}

func TestRedisConfig_Address(t *testing.T) {
	cfg := RedisConfig{
		Host: "redis.example.com",
		Port: 6379,
	}

	assert.Equal(t, "redis.example.com:6379", cfg.Address())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{name: "環境変数が設定されている", envValue: "123", defaultValue: 0, want: 123},
		{name: "環境変数が空", envValue: "", defaultValue: 456, want: 456},
		{name: "環境変数が無効な値", envValue: "invalid", defaultValue: 789, want: 789},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT", tt.defaultValue))
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "環境変数がtrue", envValue: "true", defaultValue: false, want: true},
		{name: "環境変数がfalse", envValue: "false", defaultValue: true, want: false},
		{name: "環境変数が空", envValue: "", defaultValue: true, want: true},
		{name: "環境変数が無効な値", envValue: "invalid", defaultValue: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsBool("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
	}{
		{name: "環境変数が有効な時間", envValue: "1h", defaultValue: time.Minute, want: time.Hour},
		{name: "環境変数が空", envValue: "", defaultValue: time.Minute, want: time.Minute},
		{name: "環境変数が無効な値", envValue: "invalid", defaultValue: time.Hour, want: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     []string
	}{
		{name: "カンマ区切り", envValue: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "空白と空要素を除去", envValue: " a , ,b ", want: []string{"a", "b"}},
		{name: "環境変数が空", envValue: "", want: []string{"default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_LIST", tt.envValue)
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"default"}))
		})
	}
}
