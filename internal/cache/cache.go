package cache

import "github.com/webitel/form-exporter/internal/model"

// Cache records export runs so that two exports never write the same
// destination file at the same time.
type Cache interface {
	// Acquire takes the lock of path. It reports false when another run
	// holds it.
	Acquire(path string) (bool, error)
	Release(path string) error
	SetExportStatus(path string, status model.ExportStatus) error
	GetExportStatus(path string) (model.ExportStatus, error)
	Close() error
}
