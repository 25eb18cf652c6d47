package backend

import (
	"fmt"

	"bodekasse/internal/config"
	"bodekasse/internal/store/google"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// CSV and memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	Google google.Config
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		Google:        GoogleConfig(appConfig),
	}, nil
}

// GoogleConfig extracts the spreadsheet settings, shared by the sheets
// backend and the mirror target.
func GoogleConfig(appConfig *config.Config) google.Config {
	return google.Config{
		SpreadsheetID:   appConfig.GoogleSpreadsheetID,
		MembersSheet:    appConfig.GoogleMembersSheet,
		FinesSheet:      appConfig.GoogleFinesSheet,
		CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		CredentialsFile: appConfig.GoogleServiceAccountFile,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Google.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// Seeding directory is optional.
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := []BackendType{CSVBackend, MemoryBackend, SQLiteBackend, SheetsBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
