package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// LoaderStatusRequest asks the loader for the state of one load job.
type LoaderStatusRequest struct {
	// LoadID is the loader's job identifier, returned when the load was accepted.
	LoadID string `json:"loadId"`
	// Details includes details beyond the overall status.
	Details bool `json:"details,omitempty"`
	// Errors includes the (paged) list of errors.
	Errors bool `json:"errors,omitempty"`
	// Page is the error page number, only meaningful with Errors.
	Page int `json:"page,omitempty"`
	// ErrorsPerPage is the error page size, only meaningful with Errors.
	ErrorsPerPage int `json:"errorsPerPage,omitempty"`
}

// Validate requires a load id.
func (r LoaderStatusRequest) Validate() error {
	if strings.TrimSpace(r.LoadID) == "" {
		return NewInputError(ErrInvalidLoadRequest, "Loader Get-Status request error: loadId not set")
	}
	return nil
}

// Query renders the optional parameters in the loader's TRUE/FALSE dialect.
func (r LoaderStatusRequest) Query() url.Values {
	q := url.Values{}
	if r.Details {
		q.Set("details", "TRUE")
	}
	if r.Errors {
		q.Set("errors", "TRUE")
		if r.Page > 0 {
			q.Set("page", strconv.Itoa(r.Page))
		}
		if r.ErrorsPerPage > 0 {
			q.Set("errorsPerPage", strconv.Itoa(r.ErrorsPerPage))
		}
	}
	return q
}
