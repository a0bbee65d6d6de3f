package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	goi18n "github.com/nicksnyder/go-i18n/i18n"
	"github.com/spf13/afero"
	"github.com/webitel/form-exporter/internal/cache"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/locale"
	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/model/options"
	"github.com/webitel/form-exporter/internal/store"
	"github.com/webitel/form-exporter/internal/util/csvfile"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTimeLayout = "2006-01-02 15:04:05"

type ExportService interface {
	Export(ctx context.Context, raw RawRequest) (*model.ExportResult, error)
}

type ExportServiceImpl struct {
	store      store.FormStore
	cache      cache.Cache
	log        *slog.Logger
	fs         afero.Fs
	now        func() time.Time
	out        io.Writer
	T          goi18n.TranslateFunc
	baseDir    string
	timeLayout string
	tracer     trace.Tracer
}

type Option func(*ExportServiceImpl)

func WithFs(fs afero.Fs) Option {
	return func(s *ExportServiceImpl) { s.fs = fs }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExportServiceImpl) { s.now = now }
}

// WithOutput sets where progress and success notices are printed.
func WithOutput(w io.Writer) Option {
	return func(s *ExportServiceImpl) { s.out = w }
}

func WithTranslator(T goi18n.TranslateFunc) Option {
	return func(s *ExportServiceImpl) { s.T = T }
}

func WithBaseDir(dir string) Option {
	return func(s *ExportServiceImpl) { s.baseDir = dir }
}

func WithTimeLayout(layout string) Option {
	return func(s *ExportServiceImpl) { s.timeLayout = layout }
}

// NewExportService builds the export pipeline over s. c may be nil, in
// which case concurrent runs are not registered.
func NewExportService(s store.FormStore, c cache.Cache, log *slog.Logger, opts ...Option) (*ExportServiceImpl, error) {
	if s == nil {
		return nil, errors.Internal("store is nil in ExportService")
	}
	if log == nil {
		log = slog.Default()
	}
	svc := &ExportServiceImpl{
		store:      s,
		cache:      c,
		log:        log,
		fs:         afero.NewOsFs(),
		now:        time.Now,
		out:        io.Discard,
		baseDir:    ".",
		timeLayout: DefaultTimeLayout,
		tracer:     otel.Tracer(model.AppServiceName),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.T == nil {
		T, err := locale.Tfunc(locale.DefaultLang)
		if err != nil {
			return nil, errors.Internal("could not load translations", errors.WithCause(err))
		}
		svc.T = T
	}
	return svc, nil
}

// Export writes the entries of one form to a CSV file. Nothing is written
// unless the form has fields and at least one entry matches.
func (s *ExportServiceImpl) Export(ctx context.Context, raw RawRequest) (result *model.ExportResult, err error) {
	ctx, span := s.tracer.Start(ctx, "export")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.Message(err))
		}
		span.End()
	}()

	req, err := NewValidator(s.fs, s.now, s.baseDir).ValidateRequest(raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("export.form_ref", req.FormRef),
		attribute.String("export.file_path", req.FilePath),
	)

	release, err := s.register(req.FilePath)
	if err != nil {
		return nil, err
	}
	defer func() { release(err) }()

	return s.export(ctx, req)
}

func (s *ExportServiceImpl) export(ctx context.Context, req *model.ExportRequest) (*model.ExportResult, error) {
	log := s.log.With(slog.String("form", req.FormRef), slog.String("file_path", req.FilePath))

	if err := checkEnvironment(ctx, s.store); err != nil {
		return nil, err
	}

	formID, fields, err := loadFields(ctx, s.store, req.FormRef)
	if err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "form_exporter.export.fields_loaded",
		slog.Int64("form_id", formID),
		slog.Int("fields", len(fields)),
	)

	cursor, err := s.store.SearchEntries(options.NewSearchOptions(ctx, formID, req.StartDate, req.EndDate))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.Next() {
		if err = cursor.Err(); err != nil {
			return nil, err
		}
		return nil, errors.NotFound("No entries found for this form or date range.",
			errors.WithID("export.entries.not_found"))
	}

	w, err := csvfile.Create(s.fs, req.FilePath)
	if err != nil {
		return nil, errors.Internal(
			fmt.Sprintf("Unable to open the file at %s. Please ensure the path is correct and writable.", req.FilePath),
			errors.WithID("export.file.open_failed"),
			errors.WithParams(map[string]any{"Path": req.FilePath}),
			errors.WithCause(err),
		)
	}
	defer w.Close()

	if err = w.Write(s.header(fields)); err != nil {
		return nil, writeError(req.FilePath, err)
	}

	entries := 0
	for ok := true; ok; ok = cursor.Next() {
		if err = ctx.Err(); err != nil {
			return nil, errors.Internal("export cancelled", errors.WithID("export.cancelled"), errors.WithCause(err))
		}

		entry := cursor.Entry()
		s.notice(locale.NoticeEntry, map[string]any{"ID": entry.ID})

		values, err := resolveEntry(ctx, s.store, entry.ID)
		if err != nil {
			return nil, err
		}
		if err = w.Write(s.row(fields, entry, values)); err != nil {
			return nil, writeError(req.FilePath, err)
		}
		entries++
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	if err = w.Close(); err != nil {
		return nil, writeError(req.FilePath, err)
	}

	s.notice(locale.NoticeSuccess, map[string]any{"Path": req.FilePath})
	log.InfoContext(ctx, "form_exporter.export.completed",
		slog.Int64("form_id", formID),
		slog.Int("entries", entries),
	)

	return &model.ExportResult{
		FilePath: req.FilePath,
		FormID:   formID,
		Fields:   len(fields),
		Entries:  entries,
	}, nil
}

func (s *ExportServiceImpl) header(fields []*model.Field) []string {
	header := make([]string, 0, len(fields)+5)
	for _, f := range fields {
		header = append(header, f.Name)
	}
	return append(header, locale.Headers(s.T)...)
}

func (s *ExportServiceImpl) row(fields []*model.Field, entry *model.Entry, values EntryValues) []string {
	updatedAt := ""
	if entry.UpdatedAt != nil {
		updatedAt = entry.UpdatedAt.Format(s.timeLayout)
	}
	return append(values.row(fields),
		entry.CreatedAt.Format(s.timeLayout),
		updatedAt,
		entry.IP,
		strconv.FormatInt(entry.ID, 10),
		entry.FormKey,
	)
}

func (s *ExportServiceImpl) notice(id string, data map[string]any) {
	fmt.Fprintln(s.out, s.T(id, data))
}

// register takes the run lock of path when a run registry is configured.
// The returned func records the outcome and releases the lock.
func (s *ExportServiceImpl) register(path string) (func(error), error) {
	if s.cache == nil {
		return func(error) {}, nil
	}

	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	ok, err := s.cache.Acquire(key)
	if err != nil {
		return nil, errors.Internal("failed to register export run", errors.WithCause(err))
	}
	if !ok {
		return nil, errors.InvalidArgument(fmt.Sprintf("An export to %s is already in progress.", path),
			errors.WithID("export.run.in_progress"),
			errors.WithParams(map[string]any{"Path": path}),
		)
	}
	s.setStatus(key, model.ExportStatusProcessing)

	return func(runErr error) {
		status := model.ExportStatusDone
		if runErr != nil {
			status = model.ExportStatusFailed
		}
		s.setStatus(key, status)
		if err := s.cache.Release(key); err != nil {
			s.log.Warn("form_exporter.export.release_failed", slog.String("file_path", key), slog.String("error", err.Error()))
		}
	}, nil
}

func (s *ExportServiceImpl) setStatus(key string, status model.ExportStatus) {
	if err := s.cache.SetExportStatus(key, status); err != nil {
		s.log.Warn("form_exporter.export.status_failed",
			slog.String("file_path", key),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
	}
}

func writeError(path string, err error) error {
	return errors.Internal(fmt.Sprintf("Failed to write the file at %s.", path),
		errors.WithID("export.file.write_failed"),
		errors.WithParams(map[string]any{"Path": path}),
		errors.WithCause(err),
	)
}
