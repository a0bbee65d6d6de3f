package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	dberr "github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/model/options"
	"github.com/webitel/form-exporter/internal/store"
)

type Forms struct {
	storage *Store
	queries *store.Queries
}

func NewFormStore(s *Store) (store.FormStore, error) {
	if s == nil {
		return nil, dberr.NewDBInternalError("new_store", errors.New("store is nil"))
	}
	queries, err := store.NewQueries(s.config.TablePrefix, s.driver.dialect)
	if err != nil {
		return nil, dberr.NewDBInternalError("new_store", err)
	}
	return &Forms{storage: s, queries: queries}, nil
}

func (f *Forms) CheckSchema(ctx context.Context) error {
	db, err := f.storage.Database()
	if err != nil {
		return err
	}

	for _, table := range f.queries.All() {
		sqlStr, args, err := f.queries.Probe(table).ToSql()
		if err != nil {
			return dberr.NewDBInternalError("check_schema", err)
		}
		rows, err := db.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return f.mapError("check_schema", table, err)
		}
		_ = rows.Close()
	}
	return nil
}

func (f *Forms) ResolveFormID(ctx context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}

	db, err := f.storage.Database()
	if err != nil {
		return 0, err
	}

	sqlStr, args, err := f.queries.FormIDByKey(ref).ToSql()
	if err != nil {
		return 0, dberr.NewDBInternalError("resolve_form_id", err)
	}

	var id int64
	err = db.QueryRowContext(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, f.mapError("resolve_form_id", f.queries.Forms(), err)
	}
	return id, nil
}

func (f *Forms) GetFields(ctx context.Context, formID int64) ([]*model.Field, error) {
	rows, err := f.query(ctx, "get_fields", f.queries.Tables.Fields(), f.queries.Fields(formID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []*model.Field
	for rows.Next() {
		var (
			field     model.Field
			key, name *string
		)
		if err := rows.Scan(&field.ID, &field.FormID, &key, &name, &field.Order); err != nil {
			return nil, dberr.NewDBInternalError("get_fields", err)
		}
		field.Key = deref(key)
		field.Name = deref(name)
		fields = append(fields, &field)
	}
	if err = rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_fields", err)
	}
	return fields, nil
}

func (f *Forms) SearchEntries(opts *options.SearchOptions) (store.EntryCursor, error) {
	rows, err := f.query(opts, "search_entries", f.queries.Items(), f.queries.Entries(opts.FormID, opts.From, opts.To))
	if err != nil {
		return nil, err
	}
	return &entryCursor{rows: rows}, nil
}

func (f *Forms) GetEntryMetas(ctx context.Context, entryID int64) ([]*model.EntryMeta, error) {
	rows, err := f.query(ctx, "get_entry_metas", f.queries.ItemMetas(), f.queries.EntryMetas(entryID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []*model.EntryMeta
	for rows.Next() {
		var (
			meta  model.EntryMeta
			value *string
		)
		if err := rows.Scan(&meta.EntryID, &meta.FieldID, &value); err != nil {
			return nil, dberr.NewDBInternalError("get_entry_metas", err)
		}
		meta.Value = deref(value)
		metas = append(metas, &meta)
	}
	if err = rows.Err(); err != nil {
		return nil, dberr.NewDBInternalError("get_entry_metas", err)
	}
	return metas, nil
}

func (f *Forms) query(ctx context.Context, op, table string, query sq.SelectBuilder) (*sql.Rows, error) {
	db, err := f.storage.Database()
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, dberr.NewDBInternalError(op, err)
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, f.mapError(op, table, err)
	}
	return rows, nil
}

func (f *Forms) mapError(op, table string, err error) error {
	if f.storage.driver.undefinedTable(err) {
		return dberr.NewDBSchemaError(op, table, err.Error())
	}
	return dberr.NewDBInternalError(op, err)
}

type entryCursor struct {
	rows  *sql.Rows
	entry *model.Entry
	err   error
}

func (c *entryCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}

	var (
		entry         model.Entry
		ip, name, key *string
		updatedAt     *time.Time
	)
	err := c.rows.Scan(&entry.ID, &entry.FormID, &ip, &entry.CreatedAt, &updatedAt, &name, &key)
	if err != nil {
		c.err = dberr.NewDBInternalError("search_entries", err)
		return false
	}
	entry.IP = deref(ip)
	entry.UpdatedAt = updatedAt
	entry.FormName = deref(name)
	entry.FormKey = deref(key)
	c.entry = &entry
	return true
}

func (c *entryCursor) Entry() *model.Entry { return c.entry }

func (c *entryCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return dberr.NewDBInternalError("search_entries", err)
	}
	return nil
}

func (c *entryCursor) Close() error {
	if err := c.rows.Close(); err != nil {
		return dberr.NewDBInternalError("search_entries", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
