package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/model"
)

// RawRequest is the export input as the user typed it.
type RawRequest struct {
	FormID    string
	FilePath  string
	StartDate string
	EndDate   string
}

// Validator turns a RawRequest into an ExportRequest. It touches the
// filesystem only to probe the destination directory.
type Validator struct {
	fs      afero.Fs
	now     func() time.Time
	baseDir string
}

func NewValidator(fs afero.Fs, now func() time.Time, baseDir string) *Validator {
	if now == nil {
		now = time.Now
	}
	if baseDir == "" {
		baseDir = "."
	}
	return &Validator{fs: fs, now: now, baseDir: baseDir}
}

func (v *Validator) ValidateRequest(raw RawRequest) (*model.ExportRequest, error) {
	formRef := strings.TrimSpace(raw.FormID)
	if formRef == "" {
		return nil, errors.InvalidArgument("You must provide a form ID using --form_id=<form_id>",
			errors.WithID("export.validate.form_id.missing"))
	}

	req := &model.ExportRequest{
		FormRef:     formRef,
		FilePath:    strings.TrimSpace(raw.FilePath),
		RequestedAt: v.now(),
	}
	if req.FilePath == "" {
		req.FilePath = DefaultFilePath(v.baseDir, formRef, req.RequestedAt)
	}

	if err := v.checkWritable(filepath.Dir(req.FilePath)); err != nil {
		return nil, err
	}

	var err error
	if req.StartDate, err = parseDate(raw.StartDate); err != nil {
		return nil, errors.InvalidArgument("Invalid start date format. Please use Y-m-d.",
			errors.WithID("export.validate.start_date.invalid"), errors.WithCause(err))
	}
	if req.EndDate, err = parseDate(raw.EndDate); err != nil {
		return nil, errors.InvalidArgument("Invalid end date format. Please use Y-m-d.",
			errors.WithID("export.validate.end_date.invalid"), errors.WithCause(err))
	}

	return req, nil
}

// DefaultFilePath names the export file after the form and the request time.
func DefaultFilePath(baseDir, formRef string, at time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("formidable-form-%s-entries-%d.csv", formRef, at.Unix()))
}

func (v *Validator) checkWritable(dir string) error {
	notWritable := func(cause error) error {
		return errors.InvalidArgument(
			fmt.Sprintf("The directory %s is not writable. Please check the permissions.", dir),
			errors.WithID("export.validate.dir.not_writable"),
			errors.WithParams(map[string]any{"Dir": dir}),
			errors.WithCause(cause),
		)
	}

	info, err := v.fs.Stat(dir)
	if err != nil {
		return notWritable(err)
	}
	if !info.IsDir() {
		return notWritable(fmt.Errorf("%s is not a directory", dir))
	}

	probe, err := afero.TempFile(v.fs, dir, ".form-exporter-*")
	if err != nil {
		return notWritable(err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = v.fs.Remove(name)
	return nil
}

// parseDate accepts only the canonical YYYY-MM-DD form of a real calendar
// day. An empty value means no bound.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return nil, err
	}
	if t.Format(model.DateLayout) != value {
		return nil, fmt.Errorf("%q is not in %s form", value, model.DateLayout)
	}
	return &t, nil
}
