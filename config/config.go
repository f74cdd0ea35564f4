package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	NoShow       NoShowConfig
	Penalty      PenaltyConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Port       string
	Env        string
	LogLevel   string
	CORSOrigin string
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	QueueDB  int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type NoShowConfig struct {
	Interval     time.Duration
	GraceMinutes int
}

type PenaltyConfig struct {
	Interval time.Duration
	Fee      decimal.Decimal
}

type RateLimitConfig struct {
	Backend string
	Window  time.Duration
	Max     int
}

type NotificationConfig struct {
	Transport   string
	MaxAttempts int
	BackoffBase time.Duration
	Concurrency int
	SMTP        SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ORIGIN", "*")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_SQLITE_PATH", "hms.db")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("NOSHOW_INTERVAL", "10m")
	viper.SetDefault("NOSHOW_GRACE_MINUTES", 15)
	viper.SetDefault("PENALTY_INTERVAL", "10m")
	viper.SetDefault("PENALTY_FEE", "0")
	viper.SetDefault("RATE_LIMIT_BACKEND", "memory")
	viper.SetDefault("RATE_LIMIT_WINDOW", "60s")
	viper.SetDefault("RATE_LIMIT_MAX", 60)
	viper.SetDefault("NOTIFY_TRANSPORT", "log")
	viper.SetDefault("NOTIFY_MAX_ATTEMPTS", 3)
	viper.SetDefault("NOTIFY_BACKOFF_BASE", "1s")
	viper.SetDefault("NOTIFY_CONCURRENCY", 5)
	viper.SetDefault("SMTP_PORT", "587")
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	fee, err := decimal.NewFromString(viper.GetString("PENALTY_FEE"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port:       viper.GetString("APP_PORT"),
			Env:        viper.GetString("APP_ENV"),
			LogLevel:   viper.GetString("LOG_LEVEL"),
			CORSOrigin: viper.GetString("CORS_ORIGIN"),
		},
		DB: DBConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASSWORD"),
			Name:       viper.GetString("DB_NAME"),
			SQLitePath: viper.GetString("DB_SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			QueueDB:  viper.GetInt("REDIS_QUEUE_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		NoShow: NoShowConfig{
			Interval:     viper.GetDuration("NOSHOW_INTERVAL"),
			GraceMinutes: viper.GetInt("NOSHOW_GRACE_MINUTES"),
		},
		Penalty: PenaltyConfig{
			Interval: viper.GetDuration("PENALTY_INTERVAL"),
			Fee:      fee,
		},
		RateLimit: RateLimitConfig{
			Backend: viper.GetString("RATE_LIMIT_BACKEND"),
			Window:  viper.GetDuration("RATE_LIMIT_WINDOW"),
			Max:     viper.GetInt("RATE_LIMIT_MAX"),
		},
		Notification: NotificationConfig{
			Transport:   viper.GetString("NOTIFY_TRANSPORT"),
			MaxAttempts: viper.GetInt("NOTIFY_MAX_ATTEMPTS"),
			BackoffBase: viper.GetDuration("NOTIFY_BACKOFF_BASE"),
			Concurrency: viper.GetInt("NOTIFY_CONCURRENCY"),
			SMTP: SMTPConfig{
				Host:     viper.GetString("SMTP_HOST"),
				Port:     viper.GetString("SMTP_PORT"),
				User:     viper.GetString("SMTP_USER"),
				Password: viper.GetString("SMTP_PASSWORD"),
				From:     viper.GetString("SMTP_FROM"),
			},
		},
	}

	return config, nil
}
