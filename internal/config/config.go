package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds server configuration values.
type Config struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	MaxConnections  int           `mapstructure:"max_connections" yaml:"max_connections" validate:"gt=0"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	Syslog          bool          `mapstructure:"syslog" yaml:"syslog"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size" yaml:"read_buffer_size" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	AdminAddr       string        `mapstructure:"admin_addr" yaml:"admin_addr"`
	AdminRateLimit  int           `mapstructure:"admin_rate_limit" yaml:"admin_rate_limit" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            12345,
		MaxConnections:  100,
		LogLevel:        "info",
		ReadBufferSize:  1024,
		WriteTimeout:    5 * time.Second,
		AdminRateLimit:  120,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Addr returns the chat listener address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.MaxConnections != 0 {
		c.MaxConnections = other.MaxConnections
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Syslog {
		c.Syslog = true
	}
	if other.ReadBufferSize != 0 {
		c.ReadBufferSize = other.ReadBufferSize
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.AdminAddr != "" {
		c.AdminAddr = other.AdminAddr
	}
	if other.AdminRateLimit != 0 {
		c.AdminRateLimit = other.AdminRateLimit
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

var validate = validator.New()

// Validate reports the first invalid value.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("%s: %v fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
	return err
}
