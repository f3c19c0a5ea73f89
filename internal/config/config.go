package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ParkEase/service-parking/internal/common/database"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
	Enabled     bool
}

// RedisConfig holds the lock store settings. An empty Addr selects the in-process locker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// BookingConfig holds workflow tunables.
type BookingConfig struct {
	ExtensionMinutes int
	ExtensionFee     float64
	DefaultRate      float64
	Currency         string
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ReportConfig holds reporting settings.
type ReportConfig struct {
	Timezone string
}

// ServiceConfig holds all configuration for the parking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	CORSOrigins []string
	DBConfig    database.PostgresConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	RedisConfig RedisConfig
	Booking     BookingConfig
	RateLimit   RateLimitConfig
	Report      ReportConfig
}

// Load reads configuration from PARKING_* environment variables, after loading .env if present.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PARKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &ServiceConfig{
		Port:        normalizePort(v.GetString("SERVICE_PORT")),
		AppEnv:      v.GetString("APP_ENV"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
			Enabled:     v.GetBool("KAFKA_ENABLED"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  v.GetDuration("REDIS_LOCK_TTL"),
		},
		Booking: BookingConfig{
			ExtensionMinutes: v.GetInt("BOOKING_EXTENSION_MINUTES"),
			ExtensionFee:     v.GetFloat64("BOOKING_EXTENSION_FEE"),
			DefaultRate:      v.GetFloat64("BOOKING_DEFAULT_RATE"),
			Currency:         v.GetString("BOOKING_CURRENCY"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Report: ReportConfig{
			Timezone: v.GetString("REPORT_TIMEZONE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "parking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "parkease-")
	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("REDIS_LOCK_TTL", "10s")
	v.SetDefault("BOOKING_EXTENSION_MINUTES", 15)
	v.SetDefault("BOOKING_EXTENSION_FEE", 10)
	v.SetDefault("BOOKING_DEFAULT_RATE", 15)
	v.SetDefault("BOOKING_CURRENCY", "INR")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REPORT_TIMEZONE", "UTC")
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("PARKING_JWT_SECRET is required")
	}
	if c.Booking.ExtensionMinutes <= 0 {
		return fmt.Errorf("PARKING_BOOKING_EXTENSION_MINUTES must be positive")
	}
	if c.Booking.ExtensionFee < 0 || c.Booking.DefaultRate < 0 {
		return fmt.Errorf("booking fees must not be negative")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid PARKING_REPORT_TIMEZONE: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func normalizePort(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
