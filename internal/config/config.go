package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Redis    RedisConfig
	Sale     SaleConfig
	Audit    AuditConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type LogConfig struct {
	Level string
}

// RedisConfig is optional; an empty Addr disables the credit lock and the
// reconciliation queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type SaleConfig struct {
	TxTimeout          time.Duration
	MaxRetryAttempts   int
	DefaultPointOfSale int
}

type AuditConfig struct {
	QueueSize int
	Workers   int
}

// Load reads an optional .env file, an optional config file named by
// CONFIG_FILE (yaml, flat keys), and finally the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "ferreteria")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "ferreteria")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_LOCK_TTL", "15s")
	v.SetDefault("SALE_TX_TIMEOUT", "5s")
	v.SetDefault("SALE_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("SALE_DEFAULT_POINT_OF_SALE", 1)
	v.SetDefault("AUDIT_QUEUE_SIZE", 256)
	v.SetDefault("AUDIT_WORKERS", 2)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}
	lockTTL, err := time.ParseDuration(v.GetString("REDIS_LOCK_TTL"))
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_LOCK_TTL: %w", err)
	}
	txTimeout, err := time.ParseDuration(v.GetString("SALE_TX_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing SALE_TX_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  lockTTL,
		},
		Sale: SaleConfig{
			TxTimeout:          txTimeout,
			MaxRetryAttempts:   v.GetInt("SALE_MAX_RETRY_ATTEMPTS"),
			DefaultPointOfSale: v.GetInt("SALE_DEFAULT_POINT_OF_SALE"),
		},
		Audit: AuditConfig{
			QueueSize: v.GetInt("AUDIT_QUEUE_SIZE"),
			Workers:   v.GetInt("AUDIT_WORKERS"),
		},
	}

	if cfg.Sale.MaxRetryAttempts < 1 {
		cfg.Sale.MaxRetryAttempts = 1
	}

	return cfg, nil
}
