package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverPostgres, URL: "postgres://localhost/duty"},
		RecurringHolidays: []RecurringHoliday{
			{RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", Description: "Christmas"},
		},
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "duty_config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mysql"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_NegativeTolerance(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.WeekendTolerance = -1

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := validConfig()
	cfg.RecurringHolidays = append(cfg.RecurringHolidays, RecurringHoliday{
		RRule:       "INVALID_RRULE_SYNTAX",
		Description: "Broken",
	})

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in recurringHolidays[1]")
}

func TestValidate_HolidayWithoutDescription(t *testing.T) {
	cfg := validConfig()
	cfg.RecurringHolidays[0].Description = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
database:
  driver: sqlite
  url: duty.db
rotaSheetID: "rota456"
scheduler:
  generalTolerance: 2
  weekendTolerance: 3
recurringHolidays:
  - rrule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"
    description: "New Year"
api:
  allowedOrigins:
    - "http://localhost:3000"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "duty.db", cfg.Database.URL)
	assert.Equal(t, "rota456", cfg.RotaSheetID)
	assert.Equal(t, 2, cfg.Scheduler.GeneralTolerance)
	assert.Equal(t, 3, cfg.Scheduler.WeekendTolerance)
	assert.Zero(t, cfg.Scheduler.HolidayTolerance)
	require.Len(t, cfg.RecurringHolidays, 1)
	assert.Equal(t, "New Year", cfg.RecurringHolidays[0].Description)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.AllowedOrigins)
}

func TestLoadFromPath_DatabaseURLFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/duty")
	path := writeConfig(t, `
database:
  driver: postgres
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host/duty", cfg.Database.URL)
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
database:
  driver: postgres
  url: postgres://localhost/duty
recurringHolidays:
  - rrule: "INVALID_RRULE_SYNTAX"
    description: "Broken"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: "postgres"
    invalid indentation
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestEnvFileName(t *testing.T) {
	assert.Equal(t, "duty_config.yaml", envFileName("duty_config.yaml", ""))
	assert.Equal(t, "duty_config.prod.yaml", envFileName("duty_config.yaml", "prod"))
	assert.Equal(t, "oauthClient.test.json", envFileName("oauthClient.json", "test"))
}

func TestHolidaysBetween(t *testing.T) {
	cfg := &Config{RecurringHolidays: []RecurringHoliday{
		{RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", Description: "Christmas"},
		{RRule: "FREQ=YEARLY;BYMONTH=5;BYDAY=-1MO", Description: "Spring bank holiday"},
	}}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	got, err := cfg.HolidaysBetween(start, end)
	require.NoError(t, err)

	var dates []string
	for _, h := range got {
		dates = append(dates, h.Date.Format("2006-01-02")+" "+h.Description)
	}
	assert.ElementsMatch(t, []string{
		"2024-12-25 Christmas",
		"2024-05-27 Spring bank holiday",
		"2025-05-26 Spring bank holiday",
	}, dates)
}

func TestHolidaysBetween_EmptyRange(t *testing.T) {
	cfg := validConfig()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := cfg.HolidaysBetween(day, day.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	body := `{"installed":{
		"client_id":"id.apps.googleusercontent.com",
		"project_id":"duty",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url":"https://www.googleapis.com/oauth2/v1/certs",
		"client_secret":"secret",
		"redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "duty", cfg.Installed.ProjectID)
}

func TestLoadOAuthClientFromPath_MissingSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	body := `{"installed":{
		"client_id":"id",
		"project_id":"duty",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url":"https://www.googleapis.com/oauth2/v1/certs",
		"redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "oauth client validation failed")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))
	})

	t.Run("valid file sets variables", func(t *testing.T) {
		t.Setenv("DUTY_SCHEDULER_DOTENV", "")
		require.NoError(t, os.Unsetenv("DUTY_SCHEDULER_DOTENV"))

		path := filepath.Join(dir, "valid.env")
		require.NoError(t, os.WriteFile(path, []byte("DUTY_SCHEDULER_DOTENV=loaded\n"), 0644))

		require.NoError(t, loadDotEnv(path))
		assert.Equal(t, "loaded", os.Getenv("DUTY_SCHEDULER_DOTENV"))
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "bad.env")
		require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=1\n"), 0644))

		err := loadDotEnv(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load")
	})
}
