package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("EXCEL_FILE_PATH", "/data/clientes.xlsx")
	t.Setenv("CREDENTIALS_FILE_PATH", "/data/credentials.json")
	t.Setenv("DATABASE_FILE_PATH", "/data/conversations.db")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "Hoja 2", cfg.SheetTab)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "America/Tijuana", cfg.Timezone)
	assert.Equal(t, 17, cfg.CutoffHour)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHEET_TAB", "Hoja 1")
	t.Setenv("CUTOFF_HOUR", "15")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Hoja 1", cfg.SheetTab)
	assert.Equal(t, 15, cfg.CutoffHour)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("SPREADSHEET_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPREADSHEET_ID")
}
