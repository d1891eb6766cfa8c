package ports

import (
	"context"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// AuditIndexer defines the system boundary for recording load outcomes in a
// backing datastore such as Elasticsearch.
type AuditIndexer interface {
	// Index requests that the given records be indexed. Implementations may use
	// bulk semantics under the hood and must honour the provided context.
	Index(ctx context.Context, records []domain.LoadAudit) error
}
