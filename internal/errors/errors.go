package errors

import (
	stderrors "errors"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/i18n"
	"google.golang.org/grpc/codes"
)

var (
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
)

// AppError is the error every exporter layer returns to the command.
// Code classifies the failure, Id selects the localized message.
type AppError struct {
	params        map[string]any
	cause         error
	Id            string     `json:"id"`
	Code          codes.Code `json:"code"`
	DetailedError string     `json:"detail"`
}

type Option func(*AppError)

func WithID(id string) Option {
	return func(err *AppError) { err.Id = id }
}

func WithCode(code codes.Code) Option {
	return func(err *AppError) { err.Code = code }
}

func WithCause(cause error) Option {
	return func(err *AppError) { err.cause = cause }
}

// WithParams sets the template data used when the message is translated.
func WithParams(params map[string]any) Option {
	return func(err *AppError) { err.params = params }
}

func New(msg string, opts ...Option) error {
	err := &AppError{DetailedError: msg, Code: codes.Unknown}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

func Internal(msg string, opts ...Option) error {
	return New(msg, append([]Option{WithCode(codes.Internal)}, opts...)...)
}

func InvalidArgument(msg string, opts ...Option) error {
	return New(msg, append([]Option{WithCode(codes.InvalidArgument)}, opts...)...)
}

func FailedPrecondition(msg string, opts ...Option) error {
	return New(msg, append([]Option{WithCode(codes.FailedPrecondition)}, opts...)...)
}

func NotFound(msg string, opts ...Option) error {
	return New(msg, append([]Option{WithCode(codes.NotFound)}, opts...)...)
}

func (err *AppError) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("%s: %v", err.DetailedError, err.cause)
	}
	return err.DetailedError
}

func (err *AppError) Unwrap() error {
	return err.cause
}

// Translate replaces the detailed message with the translation of Id, if
// the bundle has one.
func (err *AppError) Translate(T goi18n.TranslateFunc) {
	if T == nil || err.Id == "" {
		return
	}

	var errText string
	if err.params == nil {
		errText = T(err.Id)
	} else {
		errText = T(err.Id, err.params)
	}

	if errText != err.Id {
		err.DetailedError = errText
	}
}

// Code walks the chain and returns the code of the first AppError,
// codes.Unknown otherwise.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code
	}
	var dbErr DBStatusError
	if As(err, &dbErr) {
		return dbErr.StatusCode()
	}
	return codes.Unknown
}

func ID(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Id
	}
	return ""
}

// Details renders the error with its code for logs.
func Details(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("[%s] %s", Code(err), err.Error())
}

// Translate localizes every AppError in the chain.
func Translate(err error, T goi18n.TranslateFunc) {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			appErr.Translate(T)
		}
		err = Unwrap(err)
	}
}

// Message returns the user facing text of err: the detailed message of the
// outermost AppError without its cause, or err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.DetailedError
	}
	return err.Error()
}
