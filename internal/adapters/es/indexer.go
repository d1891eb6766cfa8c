package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// Error values returned by the indexer for callers to react to.
var (
	ErrTooManyRequests = fmt.Errorf("elasticsearch: too many requests (429)")
	ErrServerError     = fmt.Errorf("elasticsearch: server error (5xx)")
)

// Indexer implements ports.AuditIndexer using the Elasticsearch Bulk API.
type Indexer struct {
	client  *elasticsearch.Client
	index   string
	refresh string
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithRefresh sets the bulk refresh policy ("true", "false" or "wait_for").
func WithRefresh(refresh string) IndexerOption {
	return func(i *Indexer) { i.refresh = refresh }
}

// NewIndexer constructs a new Indexer. Bulk requests do not wait for a
// refresh unless WithRefresh says otherwise.
func NewIndexer(client *elasticsearch.Client, index string, opts ...IndexerOption) (*Indexer, error) {
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if index == "" {
		return nil, fmt.Errorf("index must not be empty")
	}
	i := &Indexer{
		client: client,
		index:  index,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Index implements ports.AuditIndexer. Records are written with the "create"
// action keyed by their ID, so a redelivered record conflicts instead of
// overwriting and conflicts are ignored.
func (i *Indexer) Index(ctx context.Context, records []domain.LoadAudit) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, rec := range records {
		meta := map[string]any{
			"create": map[string]any{
				"_index": i.index,
				"_id":    rec.ID,
			},
		}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode bulk doc: %w", err)
		}
	}

	opts := []func(*esapi.BulkRequest){
		i.client.Bulk.WithContext(ctx),
	}
	if i.refresh != "" {
		opts = append(opts, i.client.Bulk.WithRefresh(i.refresh))
	}

	res, err := i.client.Bulk(bytes.NewReader(buf.Bytes()), opts...)
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode == http.StatusConflict {
		return nil
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return ErrTooManyRequests
	}

	if res.StatusCode >= 500 && res.StatusCode <= 599 {
		return ErrServerError
	}

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.String())
	}

	var body struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}

	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}

	if !body.Errors {
		return nil
	}

	for _, item := range body.Items {
		for _, v := range item {
			switch {
			case v.Status == http.StatusConflict:
				continue
			case v.Status == http.StatusTooManyRequests:
				return ErrTooManyRequests
			case v.Status >= 500 && v.Status <= 599:
				return ErrServerError
			case v.Status >= 400:
				return fmt.Errorf("bulk item error: %d %s: %s", v.Status, v.Error.Type, v.Error.Reason)
			}
		}
	}

	return nil
}
