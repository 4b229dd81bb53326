package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hive-fieldops/backend/internal/calendar"
)

const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	StoreBackend   string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	RunMigrations  bool          `mapstructure:"RUN_MIGRATIONS"`
	AWSRegion      string        `mapstructure:"AWS_REGION"`
	DynamoEndpoint string        `mapstructure:"DYNAMODB_ENDPOINT"`
	DynamoPrefix   string        `mapstructure:"DYNAMODB_TABLE_PREFIX"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	Timezone       string        `mapstructure:"TIMEZONE"`
	WeekStart      string        `mapstructure:"CALENDAR_WEEK_START"`
	WeekCap        int           `mapstructure:"CALENDAR_WEEK_CAP"`
	MonthCap       int           `mapstructure:"CALENDAR_MONTH_CAP"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DYNAMODB_ENDPOINT", "")
	v.SetDefault("DYNAMODB_TABLE_PREFIX", "hive_")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("CALENDAR_WEEK_START", "sunday")
	v.SetDefault("CALENDAR_WEEK_CAP", 3)
	v.SetDefault("CALENDAR_MONTH_CAP", 2)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend != BackendPostgres && cfg.StoreBackend != BackendDynamoDB {
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

// Location resolves TIMEZONE, falling back to UTC when it is empty.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CalendarOptions builds the bucket caps and week start used by calendar views.
func (c Config) CalendarOptions() (calendar.Options, error) {
	opts := calendar.DefaultOptions()
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "", "sunday":
		opts.WeekStart = time.Sunday
	case "monday":
		opts.WeekStart = time.Monday
	default:
		return calendar.Options{}, fmt.Errorf("CALENDAR_WEEK_START must be sunday or monday, got %q", c.WeekStart)
	}
	opts.WeekCap = c.WeekCap
	opts.MonthCap = c.MonthCap
	return opts, nil
}
