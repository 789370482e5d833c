package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	applog "expensetracker/internal/log"
	"expensetracker/internal/slot"
)

// Environment keys.
const (
	KeyPort           = "PORT"
	KeySlotBackend    = "SLOT_BACKEND"
	KeySlotKey        = "SLOT_KEY"
	KeyDataDir        = "DATA_DIR"
	KeySQLiteDBPath   = "SQLITE_DB_PATH"
	KeyAMQPURL        = "AMQP_URL"
	KeyAMQPExchange   = "AMQP_EXCHANGE"
	KeyAMQPRoutingKey = "AMQP_ROUTING_KEY"
	KeyCurrency       = "CURRENCY"
	KeyLogLevel       = "LOG_LEVEL"

	// ConfigFileEnv names an optional config file (any format viper reads).
	ConfigFileEnv = "EXPENSES_CONFIG"
)

// Slot backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var validBackends = []string{BackendFile, BackendSQLite, BackendMemory}

type Config struct {
	// HTTP Server
	Port string

	// Storage slot
	SlotBackend  string
	SlotKey      string
	DataDir      string
	SQLiteDBPath string

	// AMQP change feed, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Presentation
	Currency string
	LogLevel string
}

func defaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "8081")
	v.SetDefault(KeySlotBackend, BackendFile)
	v.SetDefault(KeySlotKey, "expenses")
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeySQLiteDBPath, "./data/expenses.db")
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "expenses")
	v.SetDefault(KeyAMQPRoutingKey, "expense.changed")
	v.SetDefault(KeyCurrency, "RWF")
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads configuration from defaults, the optional file named by EXPENSES_CONFIG,
// and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if file := os.Getenv(ConfigFileEnv); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:           strings.TrimSpace(v.GetString(KeyPort)),
		SlotBackend:    strings.ToLower(strings.TrimSpace(v.GetString(KeySlotBackend))),
		SlotKey:        strings.TrimSpace(v.GetString(KeySlotKey)),
		DataDir:        v.GetString(KeyDataDir),
		SQLiteDBPath:   v.GetString(KeySQLiteDBPath),
		AMQPURL:        v.GetString(KeyAMQPURL),
		AMQPExchange:   v.GetString(KeyAMQPExchange),
		AMQPRoutingKey: v.GetString(KeyAMQPRoutingKey),
		Currency:       strings.TrimSpace(v.GetString(KeyCurrency)),
		LogLevel:       v.GetString(KeyLogLevel),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.SlotBackend) {
		errors = append(errors, fmt.Sprintf("invalid slot backend '%s': must be one of %v", c.SlotBackend, validBackends))
	}

	if c.SlotKey == "" {
		errors = append(errors, "slot key cannot be empty")
	} else if err := slot.ValidateKey(c.SlotKey); err != nil {
		errors = append(errors, fmt.Sprintf("invalid slot key '%s': use letters, digits, '-', '_' or '.' and do not start with '.'", c.SlotKey))
	}

	switch c.SlotBackend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.Currency == "" {
		errors = append(errors, "currency label cannot be empty")
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AMQPEnabled reports whether the change feed should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}
