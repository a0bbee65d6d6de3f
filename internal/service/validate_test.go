package service

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/form-exporter/internal/errors"
	"google.golang.org/grpc/codes"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator(t *testing.T) *Validator {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/exports", 0o755))
	return NewValidator(fs, func() time.Time { return fixedNow }, "/exports")
}

func TestValidateRequiresFormID(t *testing.T) {
	v := newTestValidator(t)

	for _, formID := range []string{"", "   "} {
		_, err := v.ValidateRequest(RawRequest{FormID: formID})
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, errors.Code(err))
		assert.Equal(t, "You must provide a form ID using --form_id=<form_id>", errors.Message(err))
	}
}

func TestValidateDefaultFilePath(t *testing.T) {
	v := newTestValidator(t)

	req, err := v.ValidateRequest(RawRequest{FormID: "5"})
	require.NoError(t, err)

	assert.Equal(t, "/exports/formidable-form-5-entries-1709294400.csv", req.FilePath)
	assert.Equal(t, "5", req.FormRef)
	assert.Equal(t, fixedNow, req.RequestedAt)
	assert.Nil(t, req.StartDate)
	assert.Nil(t, req.EndDate)
}

func TestValidateDates(t *testing.T) {
	v := newTestValidator(t)

	req, err := v.ValidateRequest(RawRequest{FormID: "5", StartDate: "2023-01-01", EndDate: "2023-12-31"})
	require.NoError(t, err)
	require.NotNil(t, req.StartDate)
	require.NotNil(t, req.EndDate)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), *req.StartDate)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), *req.EndDate)

	cases := []struct {
		name  string
		raw   RawRequest
		msgID string
	}{
		{"not a leap year", RawRequest{FormID: "5", StartDate: "2023-02-29"}, "export.validate.start_date.invalid"},
		{"no zero padding", RawRequest{FormID: "5", StartDate: "2023-1-1"}, "export.validate.start_date.invalid"},
		{"other layout", RawRequest{FormID: "5", EndDate: "01/02/2023"}, "export.validate.end_date.invalid"},
		{"trailing garbage", RawRequest{FormID: "5", EndDate: "2023-01-02x"}, "export.validate.end_date.invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.ValidateRequest(tc.raw)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, errors.Code(err))
			assert.Equal(t, tc.msgID, errors.ID(err))
		})
	}
}

func TestValidateLeapDay(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.ValidateRequest(RawRequest{FormID: "5", StartDate: "2024-02-29"})
	assert.NoError(t, err)
}

func TestValidateUnwritableDirectory(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/exports", 0o755))
	v := NewValidator(afero.NewReadOnlyFs(base), func() time.Time { return fixedNow }, "/exports")

	_, err := v.ValidateRequest(RawRequest{FormID: "5"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, errors.Code(err))
	assert.Equal(t, "The directory /exports is not writable. Please check the permissions.", errors.Message(err))
}

func TestValidateMissingDirectory(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.ValidateRequest(RawRequest{FormID: "5", FilePath: "/missing/out.csv"})
	require.Error(t, err)
	assert.Equal(t, "export.validate.dir.not_writable", errors.ID(err))
}

func TestValidateLeavesNoProbeBehind(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.ValidateRequest(RawRequest{FormID: "5", FilePath: "/exports/out.csv"})
	require.NoError(t, err)

	files, err := afero.ReadDir(v.fs, "/exports")
	require.NoError(t, err)
	assert.Empty(t, files)
}
