package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kinds of input errors. An InputError unwraps to exactly one of these.
var (
	ErrMalformedEnvelope  = errors.New("malformed notification envelope")
	ErrMissingConfig      = errors.New("missing configuration")
	ErrUnsupportedFormat  = errors.New("unsupported rdf format")
	ErrInvalidLoadRequest = errors.New("invalid load request")
	ErrInvalidEndpoint    = errors.New("invalid loader endpoint")
)

// InputError is a fatal but structured failure caused by the input of an
// invocation: the notification, the deployment configuration or the request
// derived from them. It always carries status 500.
type InputError struct {
	Status int
	Text   string
	Kind   error
}

// NewInputError builds an InputError of the given kind.
func NewInputError(kind error, format string, args ...any) *InputError {
	return &InputError{
		Status: http.StatusInternalServerError,
		Text:   fmt.Sprintf(format, args...),
		Kind:   kind,
	}
}

func (e *InputError) Error() string {
	return e.Text
}

func (e *InputError) Unwrap() error {
	return e.Kind
}

// IsInputError reports whether err is, or wraps, an *InputError.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}

// ResultFromError converts any error into the uniform Result shape.
// Input errors keep their status; anything else is reported as 500.
func ResultFromError(err error) Result {
	if err == nil {
		return Result{}
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return Result{
			StatusCode:  inputErr.Status,
			StatusError: inputErr.Text,
		}
	}
	return Result{
		StatusCode:  http.StatusInternalServerError,
		StatusError: err.Error(),
	}
}
