package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bodekasse/internal/core"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// Ledger
	AdminToken     string
	FineCatalog    string
	Currency       string
	MobilePayPhone string
	PaymentBaseURL string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleMembersSheet       string
	GoogleFinesSheet         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Mirror worker
	MirrorInterval time.Duration
}

var validBackends = []string{"csv", "memory", "sqlite", "sheets"}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "csv"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bodekasse.db"),

		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		FineCatalog:    getEnv("FINE_CATALOG", "Afbud=20,No-show=1000"),
		Currency:       getEnv("CURRENCY", "DKK"),
		MobilePayPhone: strings.TrimSpace(os.Getenv("MOBILEPAY_PHONE")),
		PaymentBaseURL: getEnv("PAYMENT_BASE_URL", core.DefaultPaymentBaseURL),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bodekasse"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		GoogleMembersSheet:       getEnv("GOOGLE_MEMBERS_SHEET", "Members"),
		GoogleFinesSheet:         getEnv("GOOGLE_FINES_SHEET", "Fines"),
		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),
	}
}

// Catalog parses FineCatalog.
func (c *Config) Catalog() (core.Catalog, error) {
	return core.ParseCatalog(c.FineCatalog)
}

// HasGoogleCredentials reports whether any service account source is set.
func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleServiceAccountJSON != "" ||
		c.GoogleServiceAccountFile != "" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "csv", "memory":
		if strings.TrimSpace(c.DataDir) == "" {
			errors = append(errors, "data directory cannot be empty when using csv or memory backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case "sheets":
		errors = append(errors, c.validateGoogle()...)
	}

	if strings.TrimSpace(c.AdminToken) == "" {
		errors = append(errors, "ADMIN_TOKEN is required")
	}

	if _, err := c.Catalog(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid fine catalog '%s': %v", c.FineCatalog, err))
	}

	if strings.TrimSpace(c.Currency) == "" {
		errors = append(errors, "currency cannot be empty")
	}

	if c.MobilePayPhone != "" {
		if u, err := url.Parse(c.PaymentBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid payment base URL '%s': must be an http(s) URL", c.PaymentBaseURL))
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateMirror checks the settings the mirror worker needs on top of
// Validate.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	}
	if c.DataBackend == "sheets" {
		errors = append(errors, "mirror worker needs a primary backend other than sheets")
	}
	errors = append(errors, c.validateGoogle()...)
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateGoogle() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using Google Sheets")
	}
	if c.GoogleMembersSheet == "" || c.GoogleFinesSheet == "" {
		errors = append(errors, "Google members and fines sheet names cannot be empty")
	} else if c.GoogleMembersSheet == c.GoogleFinesSheet {
		errors = append(errors, "Google members and fines sheets must differ")
	}
	if !c.HasGoogleCredentials() {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
