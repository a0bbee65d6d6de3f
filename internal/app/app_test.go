package app

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfg "github.com/webitel/form-exporter/config"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/service"
	"google.golang.org/grpc/codes"

	_ "github.com/mattn/go-sqlite3"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordpress.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
CREATE TABLE wp_frm_forms (id INTEGER PRIMARY KEY, form_key TEXT, name TEXT);
CREATE TABLE wp_frm_fields (id INTEGER PRIMARY KEY, form_id INTEGER, field_key TEXT, name TEXT, field_order INTEGER);
CREATE TABLE wp_frm_items (id INTEGER PRIMARY KEY, form_id INTEGER, ip TEXT, created_at DATETIME, updated_at DATETIME);
CREATE TABLE wp_frm_item_metas (id INTEGER PRIMARY KEY AUTOINCREMENT, item_id INTEGER, field_id INTEGER, meta_value TEXT);
INSERT INTO wp_frm_forms VALUES (5, 'abc', 'Contact');
INSERT INTO wp_frm_fields VALUES (1, 5, 'name', 'Name', 1), (2, 5, 'email', 'Email', 2);
INSERT INTO wp_frm_items VALUES (10, 5, '1.2.3.4', '2023-01-01 09:00:00', '2023-01-02 09:00:00');
INSERT INTO wp_frm_item_metas (item_id, field_id, meta_value) VALUES (10, 1, 'Ana');
`)
	require.NoError(t, err)
	return path
}

func testConfig(dsn, out string) *cfg.AppConfig {
	return &cfg.AppConfig{
		Database: &cfg.DatabaseConfig{Driver: "sqlite3", Url: dsn, TablePrefix: "wp_"},
		Redis:    &cfg.RedisConfig{},
		Export: &cfg.ExportConfig{
			FormID:     "5",
			FilePath:   out,
			BaseDir:    filepath.Dir(out),
			Lang:       "pt-BR",
			TimeLayout: "2006-01-02",
		},
	}
}

func TestAppExportsFromSQLite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "entries.csv")
	notices := &bytes.Buffer{}

	application, err := New(testConfig(seedDatabase(t), out), nil, service.WithOutput(notices))
	require.NoError(t, err)
	defer application.Stop()

	res, err := application.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Entries)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"Name,Email,Marca Temporal,Última Atualização,IP,ID Entrada,Chave\n"+
			"Ana,,2023-01-01,2023-01-02,1.2.3.4,10,abc\n",
		string(data))
	assert.Contains(t, notices.String(), "Processando entrada ID: 10")
}

func TestAppWithRunRegistry(t *testing.T) {
	mr := miniredis.RunT(t)
	out := filepath.Join(t.TempDir(), "entries.csv")
	config := testConfig(seedDatabase(t), out)
	config.Redis.Addr = mr.Addr()
	config.Redis.LockTTL = time.Minute

	application, err := New(config, nil, service.WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	defer application.Stop()
	require.NotNil(t, application.Cache)

	_, err = application.Start(context.Background())
	require.NoError(t, err)

	status, err := application.Cache.GetExportStatus(out)
	require.NoError(t, err)
	assert.Equal(t, model.ExportStatusDone, status)
}

func TestAppMissingPlugin(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "empty.db")
	out := filepath.Join(t.TempDir(), "entries.csv")

	application, err := New(testConfig(dsn, out), nil)
	require.NoError(t, err)
	defer application.Stop()

	_, err = application.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, errors.Code(err))
}

func TestAppUnsupportedLanguage(t *testing.T) {
	config := testConfig("unused.db", "/tmp/out.csv")
	config.Export.Lang = "xx-YY"

	_, err := New(config, nil)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, errors.Code(err))
}

func TestAppRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	config := testConfig("unused.db", "/tmp/out.csv")
	config.Redis.Addr = addr

	_, err := New(config, nil)
	assert.Error(t, err)
}

func TestAppRejectsUnsafeTablePrefix(t *testing.T) {
	config := testConfig("unused.db", "/tmp/out.csv")
	config.Database.TablePrefix = "wp_;--"

	_, err := New(config, nil)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, errors.Code(err))
	assert.Equal(t, "config.database.table_prefix", errors.ID(err))
}
