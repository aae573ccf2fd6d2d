// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// EnvDevelopment switches the application to human friendly logging.
const EnvDevelopment = "development"

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver      string        `mapstructure:"DB_DRIVER"`
	DBSource      string        `mapstructure:"DB_SOURCE"`
	ServerAddress string        `mapstructure:"SERVER_ADDRESS"`
	LockTimeout   time.Duration `mapstructure:"LOCK_TIMEOUT"`
	Environement  string        `mapstructure:"GO_ENV"`
}

// Load read configuration from file or environment variables.
//
// A missing app.env is not an error, the defaults and the environment are used instead.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("DB_DRIVER", DriverMemory)
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("LOCK_TIMEOUT", 5*time.Second)
	v.SetDefault("GO_ENV", "production")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	if err = c.validate(); err != nil {
		return c, err
	}

	return c, nil
}

var (
	// ErrUnknownDriver indicates unsupported DB_DRIVER value.
	ErrUnknownDriver = errors.New("unknown DB_DRIVER")
	// ErrMissingSource indicates that a SQL driver is configured without DB_SOURCE.
	ErrMissingSource = errors.New("DB_SOURCE is required for SQL drivers")
	// ErrInvalidLockTimeout indicates non-positive LOCK_TIMEOUT.
	ErrInvalidLockTimeout = errors.New("LOCK_TIMEOUT must be positive")
)

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.DBSource == "" {
			return ErrMissingSource
		}
	default:
		return ErrUnknownDriver
	}

	if c.LockTimeout <= 0 {
		return ErrInvalidLockTimeout
	}

	return nil
}
