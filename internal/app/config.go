package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/unitel-app/unitel/internal/gradebook"
	"github.com/unitel-app/unitel/internal/models"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

// GSheetConfig drives one scheduled spreadsheet export for one owner.
type GSheetConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	Schedule        string `toml:"schedule"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		UserIDHeader    string         `toml:"user_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Cache struct {
		RedisURL       string `toml:"redis_url"`
		TTLSeconds     int    `toml:"ttl_seconds"`
		FetchTimeoutMS int    `toml:"fetch_timeout_ms"`
	} `toml:"cache"`

	Grading struct {
		Scale             map[string]float64 `toml:"scale"`
		FailingGrades     []string           `toml:"failing_grades"`
		GoodAttendanceMin float64            `toml:"good_attendance_min"`
		WarnAttendanceMin float64            `toml:"warn_attendance_min"`
	} `toml:"grading"`

	Exams struct {
		DefaultTypes []string `toml:"default_types"`
	} `toml:"exams"`

	GSheet map[string][]GSheetConfig `toml:"gsheet"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	// .env / environment wins over the file for deploy-specific values
	if dsn := os.Getenv("UNITEL_DB_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if url := os.Getenv("UNITEL_CACHE_REDIS_URL"); url != "" {
		config.Cache.RedisURL = url
	}
	if url := os.Getenv("UNITEL_AUTH_REDIS_URL"); url != "" {
		config.Auth.RedisURL = url
	}
	if port := os.Getenv("UNITEL_PORT"); port != "" {
		config.Server.Port = port
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	logger.Debug.Printf("Loaded grading config: %+v", config.Grading)

	return &config, nil
}

// Calculator builds the metric calculator from the grading section.
func (c *Config) Calculator() *gradebook.Calculator {
	scale := make(map[models.Grade]float64, len(c.Grading.Scale))
	for letter, points := range c.Grading.Scale {
		scale[models.Grade(letter)] = points
	}

	failing := make([]models.Grade, 0, len(c.Grading.FailingGrades))
	for _, letter := range c.Grading.FailingGrades {
		failing = append(failing, models.Grade(letter))
	}

	return gradebook.NewCalculator(
		scale,
		failing,
		c.Grading.GoodAttendanceMin,
		c.Grading.WarnAttendanceMin,
	)
}
