package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/safeway/server/internal/db"
	"github.com/safeway/server/internal/safeway/timewindow"
)

const envPrefix = "SAFEWAY"

type Config struct {
	HTTPAddr string
	GRPCAddr string

	Env    string // "dev" | "prod"
	Store  string // "sqlite" | "memory"
	DBPath string
	// SeedDev loads the demo directory on startup. Only honoured in dev.
	SeedDev bool

	// Access evaluation
	TimeZone          string
	Location          *time.Location
	DefaultWindow     timewindow.Window
	AuditWriteTimeout time.Duration
	SyncPageSize      int

	LogLevel  string
	LogFormat string

	// HTTP request log retention
	HTTPLogRetentionDays int // 0 = keep forever
	PruneIntervalHours   int

	HealthCheckInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("env", "dev")
	v.SetDefault("store", "sqlite")
	v.SetDefault("db_path", db.DefaultPath)
	v.SetDefault("seed_dev", true)
	v.SetDefault("time_zone", "Local")
	v.SetDefault("default_window_start", "00:00")
	v.SetDefault("default_window_end", "23:59")
	v.SetDefault("audit_write_timeout", "5s")
	v.SetDefault("sync_page_size", 40)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "")
	v.SetDefault("http_log_retention_days", 30)
	v.SetDefault("prune_interval_hours", 6)
	v.SetDefault("health_check_interval", "15s")
}

// Load reads SAFEWAY_* environment variables, optionally layered over the
// YAML file named by SAFEWAY_CONFIG_FILE, and validates the result.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("config_file"); err != nil {
		return Config{}, err
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:             v.GetString("http_addr"),
		GRPCAddr:             v.GetString("grpc_addr"),
		Env:                  strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		Store:                strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		DBPath:               v.GetString("db_path"),
		SeedDev:              v.GetBool("seed_dev"),
		TimeZone:             strings.TrimSpace(v.GetString("time_zone")),
		AuditWriteTimeout:    v.GetDuration("audit_write_timeout"),
		SyncPageSize:         v.GetInt("sync_page_size"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
		HTTPLogRetentionDays: v.GetInt("http_log_retention_days"),
		PruneIntervalHours:   v.GetInt("prune_interval_hours"),
		HealthCheckInterval:  v.GetDuration("health_check_interval"),
	}

	var errs []error

	if cfg.Env != "dev" && cfg.Env != "prod" {
		errs = append(errs, fmt.Errorf("env %q: want dev or prod", cfg.Env))
	}
	if cfg.Store != "sqlite" && cfg.Store != "memory" {
		errs = append(errs, fmt.Errorf("store %q: want sqlite or memory", cfg.Store))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errs = append(errs, fmt.Errorf("time_zone: %w", err))
	}
	cfg.Location = loc

	w, err := timewindow.Parse(v.GetString("default_window_start"), v.GetString("default_window_end"))
	if err != nil {
		errs = append(errs, fmt.Errorf("default window: %w", err))
	}
	cfg.DefaultWindow = w

	if cfg.AuditWriteTimeout <= 0 {
		errs = append(errs, errors.New("audit_write_timeout must be positive"))
	}
	if cfg.HealthCheckInterval <= 0 {
		errs = append(errs, errors.New("health_check_interval must be positive"))
	}
	if cfg.SyncPageSize <= 0 {
		errs = append(errs, errors.New("sync_page_size must be positive"))
	}
	if cfg.HTTPLogRetentionDays < 0 || cfg.PruneIntervalHours < 0 {
		errs = append(errs, errors.New("retention and prune interval must not be negative"))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}
