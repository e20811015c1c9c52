package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
	AdminAddress string `mapstructure:"admin_address"`
}

// BalanceStrategy names for CreditConfig.BalanceStrategy
const (
	BalanceStrategyCounter = "counter"
	BalanceStrategyLedger  = "ledger"
)

// CreditConfig controls balance classification and alerting behavior.
type CreditConfig struct {
	// LowThreshold is the remaining-credit boundary that moves a subject
	// into the low band and triggers warning alerts.
	LowThreshold uint `mapstructure:"low_threshold"`
	// BalanceStrategy selects how read paths compute balances:
	// "counter" reads the denormalized usage control row,
	// "ledger" recomputes from the transaction history.
	BalanceStrategy string `mapstructure:"balance_strategy"`
	// AlertCooldownMinutes is the redis deduplication window for repeated
	// low-balance alerts on the same subject.
	AlertCooldownMinutes int `mapstructure:"alert_cooldown_minutes"`
}

func (c *CreditConfig) AlertCooldown() time.Duration {
	if c.AlertCooldownMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.AlertCooldownMinutes) * time.Minute
}
