package bot

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/unitel-app/unitel/internal/gradebook"
	"github.com/unitel-app/unitel/internal/models"
)

type Config struct {
	Auth struct {
		RedisURL string `toml:"redis_url"`
	} `toml:"auth"`
	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`
	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`
	Grading struct {
		Scale             map[string]float64 `toml:"scale"`
		FailingGrades     []string           `toml:"failing_grades"`
		GoodAttendanceMin float64            `toml:"good_attendance_min"`
		WarnAttendanceMin float64            `toml:"warn_attendance_min"`
	} `toml:"grading"`
}

func ReadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if dsn := os.Getenv("UNITEL_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if url := os.Getenv("UNITEL_AUTH_REDIS_URL"); url != "" {
		cfg.Auth.RedisURL = url
	}
	if token := os.Getenv("UNITEL_BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}

	return &cfg, nil
}

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
