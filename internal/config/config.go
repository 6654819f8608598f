package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type PayrollConfig struct {
	RatePerLiter     float64
	CollectorFeeRate float64
	CronSpec         string
	CronEnabled      bool
}

type PenaltyConfig struct {
	Strategy   string // flat, proportional, tiered
	FlatAmount float64
}

type AlertsConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Payroll     PayrollConfig
	Penalty     PenaltyConfig
	Alerts      AlertsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Payroll: PayrollConfig{
			RatePerLiter:     v.GetFloat64("PAYROLL_RATE_PER_LITER"),
			CollectorFeeRate: v.GetFloat64("PAYROLL_COLLECTOR_FEE_RATE"),
			CronSpec:         v.GetString("PAYROLL_CRON"),
			CronEnabled:      v.GetBool("PAYROLL_CRON_ENABLED"),
		},
		Penalty: PenaltyConfig{
			Strategy:   v.GetString("PENALTY_STRATEGY"),
			FlatAmount: v.GetFloat64("PENALTY_FLAT_AMOUNT"),
		},
		Alerts: AlertsConfig{
			WebhookURL:     v.GetString("ALERT_WEBHOOK_URL"),
			TimeoutSeconds: v.GetInt("ALERT_WEBHOOK_TIMEOUT_SECONDS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7091
	}
	if cfg.Payroll.CronSpec == "" {
		// weekly payroll cut, Friday 18:00
		cfg.Payroll.CronSpec = "0 18 * * 5"
	}
	if cfg.Penalty.Strategy == "" {
		cfg.Penalty.Strategy = "tiered"
	}
	if cfg.Alerts.TimeoutSeconds == 0 {
		cfg.Alerts.TimeoutSeconds = 5
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Payroll.RatePerLiter < 0 {
		return fmt.Errorf("PAYROLL_RATE_PER_LITER must not be negative")
	}
	if cfg.Payroll.CollectorFeeRate < 0 || cfg.Payroll.CollectorFeeRate > 1 {
		return fmt.Errorf("PAYROLL_COLLECTOR_FEE_RATE must be between 0 and 1")
	}
	switch cfg.Penalty.Strategy {
	case "flat", "proportional", "tiered":
	default:
		return fmt.Errorf("PENALTY_STRATEGY must be one of flat, proportional, tiered")
	}
	return nil
}
