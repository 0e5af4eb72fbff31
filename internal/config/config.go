package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Required.
	SpreadsheetID   string
	ExcelFilePath   string
	CredentialsPath string
	DatabasePath    string

	// Optional, with defaults.
	SheetTab        string
	WhatsAppDataDir string
	Port            string
	Timezone        string
	CutoffHour      int
}

// LoadConfig loads configuration from environment variables. The four
// required variables have no defaults; a missing one is a startup error.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SheetTab:        getEnv("SHEET_TAB", "Hoja 2"),
		WhatsAppDataDir: getEnv("WHATSAPP_DATA_DIR", "data"),
		Port:            getEnv("PORT", "8080"),
		Timezone:        getEnv("TIMEZONE", "America/Tijuana"),
		CutoffHour:      getEnvInt("CUTOFF_HOUR", 17),
	}

	var err error
	if cfg.SpreadsheetID, err = requireEnv("SPREADSHEET_ID"); err != nil {
		return nil, err
	}
	if cfg.ExcelFilePath, err = requireEnv("EXCEL_FILE_PATH"); err != nil {
		return nil, err
	}
	if cfg.CredentialsPath, err = requireEnv("CREDENTIALS_FILE_PATH"); err != nil {
		return nil, err
	}
	if cfg.DatabasePath, err = requireEnv("DATABASE_FILE_PATH"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
