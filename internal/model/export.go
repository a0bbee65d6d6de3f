package model

import "time"

// DateLayout is the only accepted format of the date bounds.
const DateLayout = "2006-01-02"

// ExportRequest is the validated input of one export run.
type ExportRequest struct {
	FormRef     string
	FilePath    string
	StartDate   *time.Time
	EndDate     *time.Time
	RequestedAt time.Time
}

type ExportStatus string

const (
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusDone       ExportStatus = "done"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportResult summarizes a finished run.
type ExportResult struct {
	FilePath string
	FormID   int64
	Fields   int
	Entries  int
}
