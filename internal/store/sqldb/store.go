package sqldb

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	conf "github.com/webitel/form-exporter/config"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/store"
)

// Store implements store.Store over database/sql for the MySQL database of
// a WordPress install and for SQLite copies of it.
type Store struct {
	formStore store.FormStore
	config    *conf.DatabaseConfig
	driver    driver
	conn      *sql.DB
}

func New(config *conf.DatabaseConfig) (*Store, error) {
	d, ok := drivers[config.Driver]
	if !ok {
		return nil, errors.NewDBInternalError("new_store", fmt.Errorf("unsupported driver %q", config.Driver))
	}
	return &Store{config: config, driver: d}, nil
}

func (s *Store) Forms() store.FormStore {
	if s.formStore == nil {
		fs, err := NewFormStore(s)
		if err != nil {
			slog.Error("form_exporter.store.forms_init_failed", slog.String("error", err.Error()))
			return nil
		}
		s.formStore = fs
	}
	return s.formStore
}

func (s *Store) Database() (*sql.DB, error) {
	if s.conn == nil {
		return nil, errors.NewDBInternalError("database", errors.New("database connection is not opened"))
	}
	return s.conn, nil
}

func (s *Store) Open() error {
	dsn, err := s.driver.dsn(s.config.Url)
	if err != nil {
		return errors.NewDBInternalError("open", err)
	}

	db, err := sql.Open(s.config.Driver, dsn)
	if err != nil {
		return errors.NewDBInternalError("open", err)
	}

	// db tuning options
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return errors.NewDBInternalError("open", err)
	}

	s.conn = db
	slog.Debug("form_exporter.store.connection_opened", slog.String("message", s.config.Driver+": connection opened"))
	return nil
}

func (s *Store) Close() error {
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		if err != nil {
			return errors.NewDBInternalError("close", err)
		}
		slog.Debug("form_exporter.store.connection_closed", slog.String("message", s.config.Driver+": connection closed"))
	}
	return nil
}
