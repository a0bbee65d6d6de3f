package service

import (
	"context"
	"strconv"
	"time"

	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/model/options"
	"github.com/webitel/form-exporter/internal/store"
)

// fakeStore is an in-memory FormStore that counts metadata fetches.
type fakeStore struct {
	schemaErr error
	keys      map[string]int64
	fields    map[int64][]*model.Field
	entries   []*model.Entry
	metas     map[int64][]*model.EntryMeta

	metaCalls map[int64]int
	searches  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		keys:      map[string]int64{},
		fields:    map[int64][]*model.Field{},
		metas:     map[int64][]*model.EntryMeta{},
		metaCalls: map[int64]int{},
	}
}

func (f *fakeStore) CheckSchema(context.Context) error { return f.schemaErr }

func (f *fakeStore) ResolveFormID(_ context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	return f.keys[ref], nil
}

func (f *fakeStore) GetFields(_ context.Context, formID int64) ([]*model.Field, error) {
	return f.fields[formID], nil
}

func (f *fakeStore) SearchEntries(opts *options.SearchOptions) (store.EntryCursor, error) {
	f.searches++
	var matched []*model.Entry
	for _, e := range f.entries {
		if e.FormID != opts.FormID {
			continue
		}
		if opts.From != nil && e.CreatedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && !e.CreatedAt.Before(opts.To.AddDate(0, 0, 1)) {
			continue
		}
		matched = append(matched, e)
	}
	return &sliceCursor{entries: matched, pos: -1}, nil
}

func (f *fakeStore) GetEntryMetas(_ context.Context, entryID int64) ([]*model.EntryMeta, error) {
	f.metaCalls[entryID]++
	return f.metas[entryID], nil
}

func (f *fakeStore) addEntry(id, formID int64, created string, key string, values map[int64]string) *model.Entry {
	createdAt, _ := time.Parse("2006-01-02 15:04:05", created)
	e := &model.Entry{ID: id, FormID: formID, CreatedAt: createdAt, FormKey: key}
	f.entries = append(f.entries, e)
	for fieldID, v := range values {
		f.metas[id] = append(f.metas[id], &model.EntryMeta{EntryID: id, FieldID: fieldID, Value: v})
	}
	return e
}

type sliceCursor struct {
	entries []*model.Entry
	pos     int
	closed  bool
}

func (c *sliceCursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.entries) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Entry() *model.Entry { return c.entries[c.pos] }
func (c *sliceCursor) Err() error          { return nil }

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}

var errNoTable = errors.NewDBSchemaError("check_schema", "wp_frm_items", "no such table: wp_frm_items")
