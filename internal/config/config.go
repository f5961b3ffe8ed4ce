package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	HistoryPageSize   int           `mapstructure:"history_page_size" yaml:"history_page_size"`
	MessageTTL        time.Duration `mapstructure:"message_ttl" yaml:"message_ttl"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	SendRateLimit     int           `mapstructure:"send_rate_limit" yaml:"send_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "roomchat.db",
		LogLevel:          "info",
		HistoryPageSize:   50,
		MessageTTL:        24 * time.Hour,
		SweepInterval:     time.Hour,
		SendRateLimit:     60,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.HistoryPageSize != 0 {
		c.HistoryPageSize = other.HistoryPageSize
	}
	if other.MessageTTL != 0 {
		c.MessageTTL = other.MessageTTL
	}
	if other.SweepInterval != 0 {
		c.SweepInterval = other.SweepInterval
	}
	if other.SendRateLimit != 0 {
		c.SendRateLimit = other.SendRateLimit
	}
}
