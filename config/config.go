package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/store"
)

const configFileEnv = "FORM_EXPORTER_CONFIG_FILE"

type AppConfig struct {
	File     string          `json:"-"`
	Database *DatabaseConfig `json:"database,omitempty"`
	Redis    *RedisConfig    `json:"redis,omitempty"`
	Export   *ExportConfig   `json:"export,omitempty"`
}

type DatabaseConfig struct {
	Driver      string `json:"driver"`
	Url         string `json:"url"`
	TablePrefix string `json:"tablePrefix"`
}

// RedisConfig enables the run registry when Addr is set.
type RedisConfig struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	LockTTL  time.Duration `json:"lockTtl"`
}

// ExportConfig holds the raw, not yet validated, export options.
type ExportConfig struct {
	FormID     string `json:"formId"`
	FilePath   string `json:"filePath"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	BaseDir    string `json:"baseDir"`
	Lang       string `json:"lang"`
	TimeLayout string `json:"timeLayout"`
}

// LoadConfig parses args (without the program name), the environment and
// the optional JSON config file, in increasing order of precedence for
// flags over file values.
func LoadConfig(args []string) (*AppConfig, error) {
	v := viper.New()
	fs := pflag.NewFlagSet("form-exporter", pflag.ContinueOnError)

	if err := bindFlagsAndEnv(v, fs, args); err != nil {
		return nil, err
	}

	configFile := getConfigFilePath(v)
	if configFile != "" {
		if err := loadFromFile(v, configFile); err != nil {
			return nil, err
		}
	}

	cfg := buildAppConfig(v, configFile)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindFlagsAndEnv(v *viper.Viper, fs *pflag.FlagSet, args []string) error {
	fs.String("config_file", "", "Configuration file in JSON format")

	// export
	fs.String("form_id", "", "The ID or key of the form to export")
	fs.String("file_path", "", "The path where the CSV file will be saved")
	fs.String("start-date", "", "The start date (YYYY-MM-DD) for filtering entries")
	fs.String("end-date", "", "The end date (YYYY-MM-DD) for filtering entries")
	fs.String("base_dir", ".", "Directory of the default output file")
	fs.String("lang", "pt-BR", "Language of the CSV header and notices")
	fs.String("time_layout", "2006-01-02 15:04:05", "Go layout of the timestamp columns")

	// database
	fs.String("db_driver", "mysql", "Database driver: mysql, postgres, sqlite3")
	fs.String("data_source", "", "Data source")
	fs.String("table_prefix", "wp_", "WordPress table prefix")

	// redis
	fs.String("redis_addr", "", "Redis address; enables the export run registry")
	fs.String("redis_password", "", "Redis password")
	fs.Int("redis_db", 0, "Redis DB number")
	fs.Duration("lock_ttl", 30*time.Minute, "How long an export holds its destination lock")

	if err := fs.Parse(args); err != nil {
		return errors.InvalidArgument(err.Error(), errors.WithID("config.flags.parse"))
	}

	_ = v.BindPFlags(fs)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Explicit mapping
	_ = v.BindEnv("data_source", "DATA_SOURCE")
	_ = v.BindEnv("db_driver", "DB_DRIVER")
	_ = v.BindEnv("table_prefix", "TABLE_PREFIX")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis_db", "REDIS_DB")
	return nil
}

func getConfigFilePath(v *viper.Viper) string {
	file := v.GetString("config_file")
	if file == "" {
		file = os.Getenv(configFileEnv)
	}
	return file
}

func loadFromFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return errors.InvalidArgument(fmt.Sprintf("could not load config file: %s", err.Error()),
			errors.WithID("config.file.load"))
	}
	return nil
}

func buildAppConfig(v *viper.Viper, file string) *AppConfig {
	return &AppConfig{
		File: file,
		Database: &DatabaseConfig{
			Driver:      v.GetString("db_driver"),
			Url:         v.GetString("data_source"),
			TablePrefix: v.GetString("table_prefix"),
		},
		Redis: &RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			LockTTL:  v.GetDuration("lock_ttl"),
		},
		Export: &ExportConfig{
			FormID:     v.GetString("form_id"),
			FilePath:   v.GetString("file_path"),
			StartDate:  v.GetString("start-date"),
			EndDate:    v.GetString("end-date"),
			BaseDir:    v.GetString("base_dir"),
			Lang:       v.GetString("lang"),
			TimeLayout: v.GetString("time_layout"),
		},
	}
}

// validateConfig checks the connection settings only; export options are
// validated by the export service so every input error reads the same.
func validateConfig(cfg *AppConfig) error {
	if cfg.Database.Url == "" {
		return errors.InvalidArgument("Data source is required", errors.WithID("config.database.url"))
	}
	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite3":
	default:
		return errors.InvalidArgument(fmt.Sprintf("Unsupported database driver %q", cfg.Database.Driver),
			errors.WithID("config.database.driver"))
	}
	if _, err := store.NewTables(cfg.Database.TablePrefix); err != nil {
		return errors.InvalidArgument(fmt.Sprintf("Invalid table prefix %q", cfg.Database.TablePrefix),
			errors.WithID("config.database.table_prefix"), errors.WithCause(err))
	}
	if cfg.Export.TimeLayout == "" {
		return errors.InvalidArgument("Time layout is required", errors.WithID("config.export.time_layout"))
	}
	if cfg.Redis.Addr != "" && cfg.Redis.LockTTL <= 0 {
		return errors.InvalidArgument("Lock TTL must be positive", errors.WithID("config.redis.lock_ttl"))
	}
	return nil
}
