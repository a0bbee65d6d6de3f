package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	conf "github.com/webitel/form-exporter/config"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/store"
)

// Store is the struct implementing the Store interface.
type Store struct {
	formStore store.FormStore
	config    *conf.DatabaseConfig
	conn      *pgxpool.Pool
}

// New creates a new Store instance.
func New(config *conf.DatabaseConfig) *Store {
	return &Store{config: config}
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

// Database returns the database connection or a custom error if it is not opened.
func (s *Store) Database() (*pgxpool.Pool, error) {
	if s.conn == nil {
		return nil, errors.NewDBInternalError("database", errors.New("database connection is not opened"))
	}
	return s.conn, nil
}

// Open establishes a connection to the database and returns a custom error if it fails.
func (s *Store) Open() error {
	config, err := pgxpool.ParseConfig(s.config.Url)
	if err != nil {
		return errors.NewDBInternalError("open", err)
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return errors.NewDBInternalError("open", err)
	}
	s.conn = conn
	slog.Debug("form_exporter.store.connection_opened", slog.String("message", "postgres: connection opened"))
	return nil
}

// Close closes the database connection and returns a custom error if it fails.
func (s *Store) Close() error {
	if s.conn != nil {
		s.conn.Close()
		slog.Debug("form_exporter.store.connection_closed", slog.String("message", "postgres: connection closed"))
		s.conn = nil
	}
	return nil
}
