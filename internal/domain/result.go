package domain

import "encoding/json"

// StatusCodeDetail is the machine-readable refinement of a loader rejection.
type StatusCodeDetail string

const (
	DetailMaxLoadTaskQueueSizeLimitBreached StatusCodeDetail = "MaxLoadTaskQueueSizeLimitBreached"
	DetailMaxConcurrentLoadLimitBreached    StatusCodeDetail = "MaxConcurrentLoadLimitBreached"
	DetailUnknown                           StatusCodeDetail = "Unknown"
)

// Result is the uniform outcome of one invocation. Every failure branch
// produces the same shape so callers can branch on StatusCode and
// StatusCodeDetail alone. The zero value marshals to {}.
type Result struct {
	StatusCode       int              `json:"statusCode,omitempty"`
	StatusCodeDetail StatusCodeDetail `json:"statusCodeDetail,omitempty"`
	StatusError      string           `json:"statusError,omitempty"`
	StatusDetail     json.RawMessage  `json:"statusDetail,omitempty"`
}

// StatusCategory represents the coarse classification of an HTTP-like status code.
type StatusCategory int

const (
	StatusCategoryUnknown StatusCategory = iota
	StatusCategorySuccess
	StatusCategoryClientError
	StatusCategoryServerError
)

// StatusCategory returns the category of the result's StatusCode.
// A zero value status is a successful hand-off.
func (r Result) StatusCategory() StatusCategory {
	code := r.StatusCode

	if code == 0 {
		return StatusCategorySuccess
	}

	switch {
	case code >= 200 && code <= 299:
		return StatusCategorySuccess
	case code >= 400 && code <= 499:
		return StatusCategoryClientError
	case code >= 500 && code <= 599:
		return StatusCategoryServerError
	default:
		return StatusCategoryUnknown
	}
}

// IsRetriable returns true when the caller should submit the same request
// again later: server-side failures (timeouts, connection errors, endpoint
// down) and the loader's queue-full and concurrency-limit rejections.
func (r Result) IsRetriable() bool {
	if r.StatusCategory() == StatusCategoryServerError {
		return true
	}
	switch r.StatusCodeDetail {
	case DetailMaxLoadTaskQueueSizeLimitBreached, DetailMaxConcurrentLoadLimitBreached:
		return true
	}
	return false
}

// IsSuccess returns true for 2xx results and the empty hand-off result.
func (r Result) IsSuccess() bool {
	return r.StatusCategory() == StatusCategorySuccess
}

// ShouldDeadLetterWithoutRetry returns true when the loader rejected the
// request for a reason that resubmitting cannot fix.
func (r Result) ShouldDeadLetterWithoutRetry() bool {
	return r.StatusCategory() == StatusCategoryClientError && !r.IsRetriable()
}
