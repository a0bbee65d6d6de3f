package service

import (
	"context"

	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/store"
)

// checkEnvironment fails when the forms plugin tables are not installed.
func checkEnvironment(ctx context.Context, s store.FormStore) error {
	err := s.CheckSchema(ctx)
	if err == nil {
		return nil
	}
	var schemaErr *errors.DBSchemaError
	if errors.As(err, &schemaErr) {
		return errors.FailedPrecondition("Formidable Forms is not installed or activated.",
			errors.WithID("export.environment.forms_missing"), errors.WithCause(err))
	}
	return err
}

// loadFields resolves the form reference and returns the form id with its
// fields in catalog order. A form without fields, including one that does
// not exist, is reported the same way.
func loadFields(ctx context.Context, s store.FormStore, formRef string) (int64, []*model.Field, error) {
	formID, err := s.ResolveFormID(ctx, formRef)
	if err != nil {
		return 0, nil, err
	}

	fields, err := s.GetFields(ctx, formID)
	if err != nil {
		return 0, nil, err
	}
	if len(fields) == 0 {
		return 0, nil, errors.NotFound("No fields found for this form.", errors.WithID("export.fields.not_found"))
	}
	return formID, fields, nil
}
