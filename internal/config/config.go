package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	OTP struct {
		TTLMinutes  int `yaml:"ttl_minutes"`
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"otp"`
	Payments struct {
		TokenPermille      int64 `yaml:"token_permille"`
		CommissionPermille int64 `yaml:"commission_permille"`
	} `yaml:"payments"`
	Worker struct {
		IntervalSeconds int64 `yaml:"interval_seconds"`
	} `yaml:"worker"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OTP.TTLMinutes <= 0 {
		cfg.OTP.TTLMinutes = 10
	}
	if cfg.OTP.MaxAttempts <= 0 {
		cfg.OTP.MaxAttempts = 5
	}
	if cfg.Payments.TokenPermille <= 0 {
		cfg.Payments.TokenPermille = 1
	}
	if cfg.Payments.CommissionPermille <= 0 {
		cfg.Payments.CommissionPermille = 9
	}
	if cfg.Worker.IntervalSeconds <= 0 {
		cfg.Worker.IntervalSeconds = 60
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("OTP_TTL_MINUTES"); v != "" {
		cfg.OTP.TTLMinutes = atoiOr(cfg.OTP.TTLMinutes, v)
	}
	if v := os.Getenv("OTP_MAX_ATTEMPTS"); v != "" {
		cfg.OTP.MaxAttempts = atoiOr(cfg.OTP.MaxAttempts, v)
	}
	if v := os.Getenv("TOKEN_PERMILLE"); v != "" {
		cfg.Payments.TokenPermille = atoi64Or(cfg.Payments.TokenPermille, v)
	}
	if v := os.Getenv("COMMISSION_PERMILLE"); v != "" {
		cfg.Payments.CommissionPermille = atoi64Or(cfg.Payments.CommissionPermille, v)
	}
	if v := os.Getenv("WORKER_INTERVAL_SECONDS"); v != "" {
		cfg.Worker.IntervalSeconds = atoi64Or(cfg.Worker.IntervalSeconds, v)
	}
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
