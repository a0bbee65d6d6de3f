package model

import "time"

// Field is one input slot of a form. The catalog order of a form's fields
// is the column order of the export.
type Field struct {
	ID     int64  `db:"id"`
	FormID int64  `db:"form_id"`
	Key    string `db:"field_key"`
	Name   string `db:"name"`
	Order  int    `db:"field_order"`
}

// Entry is one submission, joined with the name and key of its form.
type Entry struct {
	ID        int64      `db:"id"`
	FormID    int64      `db:"form_id"`
	IP        string     `db:"ip"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
	FormName  string     `db:"form_name"`
	FormKey   string     `db:"form_key"`
}

type EntryMeta struct {
	EntryID int64  `db:"item_id"`
	FieldID int64  `db:"field_id"`
	Value   string `db:"meta_value"`
}
