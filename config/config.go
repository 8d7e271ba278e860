package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Payme    PaymeConfig    `mapstructure:"payme"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// StorageConfig selects the transaction store backend.
// "memory" keeps process-lifetime records; "postgres" survives restarts
// so GetStatement/CheckTransaction keep working for Payme's reconciliation.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // memory, postgres
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// PaymeConfig holds the Merchant API credentials and policy switches.
type PaymeConfig struct {
	MerchantID string `mapstructure:"merchant_id"`
	// Login is the fixed Basic-Auth username Payme sends ("Paycom").
	Login string `mapstructure:"login"`
	// Password is the startup billing secret; rotatable via ChangePassword.
	Password string `mapstructure:"password"`
	// SandboxRelaxedAuth widens password acceptance for Payme's own
	// conformance sandbox, which sends varying test passwords. It stops
	// applying once the secret has been rotated. Disable in production.
	SandboxRelaxedAuth bool `mapstructure:"sandbox_relaxed_auth"`
	// MinAmount is the smallest chargeable amount in tiyin.
	MinAmount int64 `mapstructure:"min_amount"`
}

// ExchangeConfig holds the USD→UZS conversion settings.
type ExchangeConfig struct {
	// DefaultRate applies when no rate has been stored yet.
	DefaultRate float64 `mapstructure:"default_rate"`
}

// CaptureConfig holds the order-paid webhook settings.
type CaptureConfig struct {
	// URL of the mark-order-paid endpoint; empty disables delivery.
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpsConfig holds credentials for the internal ops API.
type OpsConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"` // argon2id encoded
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiry    time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PMG_ (Payme Merchant Gateway).
// Nested keys use underscore: PMG_PAYME_PASSWORD, PMG_DATABASE_HOST, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payme_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("payme.merchant_id", "")
	v.SetDefault("payme.login", "Paycom")
	v.SetDefault("payme.password", "")
	v.SetDefault("payme.sandbox_relaxed_auth", false)
	v.SetDefault("payme.min_amount", 100)
	v.SetDefault("exchange.default_rate", 12750)
	v.SetDefault("capture.url", "")
	v.SetDefault("capture.secret", "")
	v.SetDefault("capture.timeout", "10s")
	v.SetDefault("ops.username", "admin")
	v.SetDefault("ops.password_hash", "")
	v.SetDefault("ops.jwt_secret", "")
	v.SetDefault("ops.jwt_expiry", "24h")
	v.SetDefault("ops.jwt_issuer", "payme-merchant-gateway")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PMG_PAYME_PASSWORD -> payme.password
	v.SetEnvPrefix("PMG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
