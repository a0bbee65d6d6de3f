package store

import (
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Dialect carries what differs between the SQL backends when binding values.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// TimeArg converts a date bound to the driver argument.
	TimeArg func(time.Time) any
}

var (
	MySQL = Dialect{
		Name:        "mysql",
		Placeholder: sq.Question,
		TimeArg:     textTime,
	}
	SQLite = Dialect{
		Name:        "sqlite3",
		Placeholder: sq.Question,
		TimeArg:     textTime,
	}
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: sq.Dollar,
		TimeArg:     func(t time.Time) any { return t },
	}
)

// textTime binds a day bound as a bare date. As text it sorts at or below
// both the date-only and the date-time form of the same day, and MySQL
// reads it as that day at 00:00:00.
func textTime(t time.Time) any {
	return t.Format(dateLayout)
}

const dateLayout = "2006-01-02"

var rePrefix = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Tables names the forms plugin tables under a WordPress table prefix.
type Tables struct {
	prefix string
}

func NewTables(prefix string) (Tables, error) {
	if !rePrefix.MatchString(prefix) {
		return Tables{}, fmt.Errorf("invalid table prefix %q", prefix)
	}
	return Tables{prefix: prefix}, nil
}

func (t Tables) Forms() string { return t.prefix + "frm_forms" }
func (t Tables) Fields() string { return t.prefix + "frm_fields" }
func (t Tables) Items() string { return t.prefix + "frm_items" }
func (t Tables) ItemMetas() string { return t.prefix + "frm_item_metas" }
func (t Tables) All() []string { return []string{t.Forms(), t.Fields(), t.Items(), t.ItemMetas()} }
func (t Tables) Prefix() string { return t.prefix }

// Queries builds every statement the exporter runs. Table names are fixed
// literals under a validated prefix; all values are bound.
type Queries struct {
	Tables
	Dialect
}

func NewQueries(prefix string, dialect Dialect) (*Queries, error) {
	tables, err := NewTables(prefix)
	if err != nil {
		return nil, err
	}
	return &Queries{Tables: tables, Dialect: dialect}, nil
}

func (q *Queries) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(q.Placeholder)
}

// Probe selects nothing from table; it only fails when table is missing.
func (q *Queries) Probe(table string) sq.SelectBuilder {
	return q.builder().
		Select("1").
		From(table).
		Where("1 = 0")
}

func (q *Queries) FormIDByKey(key string) sq.SelectBuilder {
	return q.builder().
		Select("id").
		From(q.Forms()).
		Where(sq.Eq{"form_key": key}).
		Limit(1)
}

func (q *Queries) Fields(formID int64) sq.SelectBuilder {
	return q.builder().
		Select("id", "form_id", "field_key", "name", "field_order").
		From(q.Tables.Fields()).
		Where(sq.Eq{"form_id": formID}).
		OrderBy("field_order", "id")
}

// Entries selects the entries of a form joined with the form name and key.
// from and to are calendar dates; to covers its whole day.
func (q *Queries) Entries(formID int64, from, to *time.Time) sq.SelectBuilder {
	query := q.builder().
		Select(
			"it.id",
			"it.form_id",
			"it.ip",
			"it.created_at",
			"it.updated_at",
			"fr.name AS form_name",
			"fr.form_key AS form_key",
		).
		From(q.Items() + " it").
		JoinClause(fmt.Sprintf("LEFT OUTER JOIN %s fr ON it.form_id = fr.id", q.Forms())).
		Where(sq.Eq{"it.form_id": formID})

	if from != nil {
		query = query.Where(sq.GtOrEq{"it.created_at": q.TimeArg(startOfDay(*from))})
	}
	if to != nil {
		query = query.Where(sq.Lt{"it.created_at": q.TimeArg(startOfDay(*to).AddDate(0, 0, 1))})
	}

	return query.OrderBy("it.id")
}

func (q *Queries) EntryMetas(entryID int64) sq.SelectBuilder {
	return q.builder().
		Select("item_id", "field_id", "meta_value").
		From(q.ItemMetas()).
		Where(sq.Eq{"item_id": entryID}).
		OrderBy("id")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
