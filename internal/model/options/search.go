package options

import (
	"context"
	"time"
)

// SearchOptions selects the entries of one form, optionally bounded by
// creation date. Both bounds are calendar dates and are inclusive.
type SearchOptions struct {
	context.Context
	FormID int64
	From   *time.Time
	To     *time.Time
}

func NewSearchOptions(ctx context.Context, formID int64, from, to *time.Time) *SearchOptions {
	return &SearchOptions{
		Context: ctx,
		FormID:  formID,
		From:    from,
		To:      to,
	}
}
