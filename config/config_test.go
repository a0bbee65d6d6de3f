package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/form-exporter/internal/errors"
	"google.golang.org/grpc/codes"
)

func TestLoadConfigFromFlags(t *testing.T) {
	cfg, err := LoadConfig([]string{
		"--data_source=user:pass@tcp(localhost:3306)/wordpress",
		"--form_id=5",
		"--file_path=/tmp/out.csv",
		"--start-date=2023-01-01",
		"--end-date=2023-12-31",
	})
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "wp_", cfg.Database.TablePrefix)
	assert.Equal(t, "5", cfg.Export.FormID)
	assert.Equal(t, "/tmp/out.csv", cfg.Export.FilePath)
	assert.Equal(t, "2023-01-01", cfg.Export.StartDate)
	assert.Equal(t, "2023-12-31", cfg.Export.EndDate)
	assert.Equal(t, "pt-BR", cfg.Export.Lang)
	assert.Equal(t, "2006-01-02 15:04:05", cfg.Export.TimeLayout)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Redis.LockTTL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DATA_SOURCE", "postgres://localhost/wordpress")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("FORM_ID", "contact")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/wordpress", cfg.Database.Url)
	assert.Equal(t, "contact", cfg.Export.FormID)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"data_source": "forms.db",
		"db_driver": "sqlite3",
		"table_prefix": "wp2_",
		"lang": "en-US"
	}`), 0o644))

	cfg, err := LoadConfig([]string{"--config_file=" + path, "--lang=pt-BR"})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "wp2_", cfg.Database.TablePrefix)
	assert.Equal(t, "pt-BR", cfg.Export.Lang, "flags win over the file")
}

func TestLoadConfigRequiresDataSource(t *testing.T) {
	_, err := LoadConfig([]string{"--form_id=5"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, errors.Code(err))
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	_, err := LoadConfig([]string{"--data_source=x", "--db_driver=oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadConfigRejectsUnknownFlag(t *testing.T) {
	_, err := LoadConfig([]string{"--data_source=x", "--bogus"})
	require.Error(t, err)
	assert.Equal(t, "config.flags.parse", errors.ID(err))
}

func TestLoadConfigRejectsUnsafeTablePrefix(t *testing.T) {
	_, err := LoadConfig([]string{"--data_source=x", "--table_prefix=wp_; DROP TABLE wp_users; --"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, errors.Code(err))
	assert.Equal(t, "config.database.table_prefix", errors.ID(err))
	assert.Contains(t, err.Error(), "invalid table prefix")
}
