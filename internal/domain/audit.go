package domain

import (
	"encoding/json"
	"time"
)

// Outcomes recorded for a processed notification.
const (
	OutcomeLoaded     = "loaded"
	OutcomeRetry      = "retry"
	OutcomeRejected   = "rejected"
	OutcomeInputError = "input_error"
)

// LoadAudit is the record kept for every notification the consumer handles.
type LoadAudit struct {
	ID               string           `json:"id"`
	SourceURI        string           `json:"source_uri,omitempty"`
	Format           Format           `json:"format,omitempty"`
	Region           string           `json:"region,omitempty"`
	Outcome          string           `json:"outcome"`
	StatusCode       int              `json:"status_code"`
	StatusCodeDetail StatusCodeDetail `json:"status_code_detail,omitempty"`
	StatusError      string           `json:"status_error,omitempty"`
	StatusDetail     json.RawMessage  `json:"status_detail,omitempty"`
	Topic            string           `json:"topic,omitempty"`
	Partition        int              `json:"partition"`
	Offset           int64            `json:"offset"`
	ProcessedAt      time.Time        `json:"processed_at"`
}

// Outcome names how a result is treated by the consumer.
func Outcome(res Result, inputErr bool) string {
	switch {
	case inputErr:
		return OutcomeInputError
	case res.IsRetriable():
		return OutcomeRetry
	case res.IsSuccess():
		return OutcomeLoaded
	default:
		return OutcomeRejected
	}
}
