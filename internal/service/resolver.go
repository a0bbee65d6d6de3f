package service

import (
	"context"

	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/store"
)

// EntryValues maps a field id to the value an entry stored for it.
type EntryValues map[int64]string

// Value returns the stored value of fieldID, or "" when the entry has none.
func (v EntryValues) Value(fieldID int64) string {
	return v[fieldID]
}

// resolveEntry fetches the metas of one entry. When a field has more than
// one meta the first one is kept.
func resolveEntry(ctx context.Context, s store.FormStore, entryID int64) (EntryValues, error) {
	metas, err := s.GetEntryMetas(ctx, entryID)
	if err != nil {
		return nil, err
	}
	values := make(EntryValues, len(metas))
	for _, m := range metas {
		if _, ok := values[m.FieldID]; !ok {
			values[m.FieldID] = m.Value
		}
	}
	return values, nil
}

func (v EntryValues) row(fields []*model.Field) []string {
	row := make([]string, 0, len(fields)+5)
	for _, f := range fields {
		row = append(row, v.Value(f.ID))
	}
	return row
}
