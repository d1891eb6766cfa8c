package ports

import (
	"context"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// LoadSubmitter sends requests to the bulk loader. Failures are reported in
// the returned Result, never as errors.
type LoadSubmitter interface {
	Submit(ctx context.Context, endpoint string, payload []byte) domain.Result
	Status(ctx context.Context, endpoint string, req domain.LoaderStatusRequest) domain.Result
}
