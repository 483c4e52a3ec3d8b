package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Forecast ForecastConfig
	Agent    AgentConfig
	Sheets   SheetsConfig
	Sweep    SweepConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB. An empty URI switches the
// service to the in-memory store for local development.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// ForecastConfig tunes the prediction engine.
type ForecastConfig struct {
	WindowDays  int
	HorizonDays int
}

// AgentConfig holds settings for the narration agent. APIKey empty means
// narration is disabled.
type AgentConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// SheetsConfig contains configuration for the alert-report spreadsheet
// export. Both fields empty means export is disabled.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ReportRange     string
}

// SweepConfig holds the scheduled alert sweep settings.
type SweepConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "restock"),
		},
		Forecast: ForecastConfig{
			WindowDays:  getenvIntWithDefault("FORECAST_WINDOW_DAYS", 30),
			HorizonDays: getenvIntWithDefault("FORECAST_HORIZON_DAYS", 3650),
		},
		Agent: AgentConfig{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL: os.Getenv("AGENT_BASE_URL"),
			Model:   os.Getenv("AGENT_MODEL"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
			ReportRange:     getenvWithDefault("GOOGLE_SHEET_REPORT_RANGE", "Alerts!A:G"),
		},
		Sweep: SweepConfig{
			CronSchedule: getenvWithDefault("SWEEP_CRON_SCHEDULE", "0 8 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Seoul"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
// Optional integrations (narration agent, sheet export) are allowed to be
// absent; their callers degrade with a logged warning instead.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if c.Forecast.WindowDays <= 0 {
		return errors.New("FORECAST_WINDOW_DAYS must be positive")
	}
	if c.Forecast.HorizonDays <= 0 {
		return errors.New("FORECAST_HORIZON_DAYS must be positive")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_REPORT_ID must be set together")
	}

	if c.Sweep.CronSchedule == "" {
		return errors.New("SWEEP_CRON_SCHEDULE must be provided")
	}
	if c.Sweep.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntWithDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
