package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultAPIAddr = ":8080"
)

// DatabaseConfig selects the store implementation and how to reach it
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection string or a sqlite file path
	URL string `yaml:"url" validate:"required"`
}

// SchedulerConfig overrides the scheduler's tolerances and iteration caps. Zero keeps the default.
type SchedulerConfig struct {
	GeneralTolerance     int `yaml:"generalTolerance,omitempty" validate:"min=0"`
	HolidayTolerance     int `yaml:"holidayTolerance,omitempty" validate:"min=0"`
	WeekendTolerance     int `yaml:"weekendTolerance,omitempty" validate:"min=0"`
	MaxBalanceIterations int `yaml:"maxBalanceIterations,omitempty" validate:"min=0"`
	MaxPoolIterations    int `yaml:"maxPoolIterations,omitempty" validate:"min=0"`
	StagnationLimit      int `yaml:"stagnationLimit,omitempty" validate:"min=0"`
	LookbackMonths       int `yaml:"lookbackMonths,omitempty" validate:"min=0,max=24"`
	WeekendWindowMonths  int `yaml:"weekendWindowMonths,omitempty" validate:"min=0,max=24"`
}

// RecurringHoliday is a holiday defined by an RFC 5545 recurrence rule
type RecurringHoliday struct {
	RRule       string `yaml:"rrule" validate:"required"`
	Description string `yaml:"description" validate:"required"`
}

// APIConfig configures the HTTP server
type APIConfig struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" validate:"dive,required"`
}

// Config represents the application configuration
type Config struct {
	Database          DatabaseConfig     `yaml:"database"`
	RotaSheetID       string             `yaml:"rotaSheetID,omitempty"`
	Scheduler         SchedulerConfig    `yaml:"scheduler,omitempty"`
	RecurringHolidays []RecurringHoliday `yaml:"recurringHolidays,omitempty" validate:"dive"`
	API               APIConfig          `yaml:"api,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration for an environment.
// For example, env="test" will look for "duty_config.test.yaml" in the
// current directory first, then in the user's home directory. A ".env" file
// in the current directory is loaded first when present.
func LoadWithEnv(env string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	configPath, err := findFile(envFileName("duty_config.yaml", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// DATABASE_URL in the environment overrides database.url.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = defaultAPIAddr
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, h := range cfg.RecurringHolidays {
		if _, err := rrule.StrToRRule(h.RRule); err != nil {
			return fmt.Errorf("invalid rrule in recurringHolidays[%d]: %w", i, err)
		}
	}

	return nil
}

// Holiday is one concrete occurrence of a recurring holiday
type Holiday struct {
	Date        time.Time
	Description string
}

// HolidaysBetween expands the recurring holidays into dates between start and end inclusive.
// Occurrences are truncated to midnight UTC.
func (c *Config) HolidaysBetween(start, end time.Time) ([]Holiday, error) {
	var out []Holiday
	for i, h := range c.RecurringHolidays {
		rule, err := rrule.StrToRRule(h.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for recurringHolidays[%d]: %w", i, err)
		}

		rule.DTStart(start)
		for _, occ := range rule.Between(start, end, true) {
			out = append(out, Holiday{
				Date:        time.Date(occ.Year(), occ.Month(), occ.Day(), 0, 0, 0, 0, time.UTC),
				Description: h.Description,
			})
		}
	}
	return out, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// envFileName inserts env before the extension, so ("duty_config.yaml", "test") gives "duty_config.test.yaml"
func envFileName(name, env string) string {
	if env == "" {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + env + ext
}

// findFile looks for name in the current directory, then in the user's home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
