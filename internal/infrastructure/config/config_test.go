package config

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"ERP_APP_NAME":                   os.Getenv("ERP_APP_NAME"),
		"ERP_APP_ENV":                    os.Getenv("ERP_APP_ENV"),
		"ERP_APP_PORT":                   os.Getenv("ERP_APP_PORT"),
		"ERP_DATABASE_HOST":              os.Getenv("ERP_DATABASE_HOST"),
		"ERP_DATABASE_PORT":              os.Getenv("ERP_DATABASE_PORT"),
		"ERP_DATABASE_USER":              os.Getenv("ERP_DATABASE_USER"),
		"ERP_DATABASE_PASSWORD":          os.Getenv("ERP_DATABASE_PASSWORD"),
		"ERP_DATABASE_DBNAME":            os.Getenv("ERP_DATABASE_DBNAME"),
		"ERP_DATABASE_SSLMODE":           os.Getenv("ERP_DATABASE_SSLMODE"),
		"ERP_DATABASE_MAX_OPEN_CONNS":    os.Getenv("ERP_DATABASE_MAX_OPEN_CONNS"),
		"ERP_DATABASE_MAX_IDLE_CONNS":    os.Getenv("ERP_DATABASE_MAX_IDLE_CONNS"),
		"ERP_BILLING_TAX_RATE":           os.Getenv("ERP_BILLING_TAX_RATE"),
		"ERP_BILLING_PAYMENT_TERMS_DAYS": os.Getenv("ERP_BILLING_PAYMENT_TERMS_DAYS"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "logistics-erp-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "logistics_erp", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 30, cfg.Billing.PaymentTermsDays)
		assert.True(t, cfg.Billing.TaxRate.IsZero())
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_APP_NAME", "test-app")
		os.Setenv("ERP_APP_PORT", "9000")
		os.Setenv("ERP_DATABASE_HOST", "testdb.local")
		os.Setenv("ERP_DATABASE_PORT", "5433")
		os.Setenv("ERP_BILLING_TAX_RATE", "0.1")
		os.Setenv("ERP_BILLING_PAYMENT_TERMS_DAYS", "45")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Billing.TaxRate.Equal(decimal.NewFromFloat(0.1)))
		assert.Equal(t, 45, cfg.Billing.PaymentTermsDays)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})

	t.Run("production requires a database password", func(t *testing.T) {
		clearEnv()
		os.Setenv("ERP_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "logistics_erp",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.NotContains(t, dsn, "p@ss/word", "password is URL-escaped")
}
