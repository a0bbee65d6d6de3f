package store

import (
	"context"

	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/model/options"
)

type Store interface {
	Forms() FormStore

	// ------------ Database Management ------------ //
	Open() error  // Return custom DB error
	Close() error // Return custom DB error
}

// FormStore is the read-only view of the forms plugin tables.
type FormStore interface {
	// CheckSchema fails with a DBSchemaError when a forms table is missing.
	CheckSchema(ctx context.Context) error
	// ResolveFormID maps a numeric id or a form key to the form id; an
	// unknown key resolves to 0.
	ResolveFormID(ctx context.Context, ref string) (int64, error)
	GetFields(ctx context.Context, formID int64) ([]*model.Field, error)
	SearchEntries(opts *options.SearchOptions) (EntryCursor, error)
	GetEntryMetas(ctx context.Context, entryID int64) ([]*model.EntryMeta, error)
}

// EntryCursor is a single pass over the matching entries. It holds a
// database connection until Close.
type EntryCursor interface {
	Next() bool
	Entry() *model.Entry
	Err() error
	Close() error
}
