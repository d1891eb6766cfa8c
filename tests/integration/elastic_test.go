package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	elasticclient "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/require"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	adapterses "github.com/nimafallahian/go-rdfload/internal/adapters/es"
	"github.com/nimafallahian/go-rdfload/internal/domain"
)

func TestElasticsearchIndexerIndexesLoadAudit(t *testing.T) {
	// If Docker is not available, skip Elasticsearch integration tests.
	if _, err := os.Stat("/var/run/docker.sock"); err != nil {
		t.Skip("docker not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "docker.elastic.co/elasticsearch/elasticsearch:8.9.0",
		ExposedPorts: []string{"9200/tcp"},
		Env: map[string]string{
			"discovery.type":        "single-node",
			"xpack.security.enabled": "false",
		},
		WaitingFor: wait.ForHTTP("/_cluster/health").
			WithPort("9200/tcp").
			WithStartupTimeout(90 * time.Second),
	}

	esContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = esContainer.Terminate(context.Background()) }()

	endpoint, err := esContainer.PortEndpoint(ctx, "9200", "http")
	require.NoError(t, err)

	clientCfg := elasticclient.Config{
		Addresses: []string{endpoint},
	}
	es, err := elasticclient.NewClient(clientCfg)
	require.NoError(t, err)

	indexer, err := adapterses.NewIndexer(es, "rdf-loads", adapterses.WithRefresh("wait_for"))
	require.NoError(t, err)

	record := domain.LoadAudit{
		ID:          "audit-1",
		SourceURI:   "s3://bucket/data/file.ttl",
		Format:      domain.FormatTurtle,
		Region:      "eu-west-2",
		Outcome:     domain.OutcomeLoaded,
		StatusCode:  200,
		Topic:       "rdf-notifications",
		Offset:      3,
		ProcessedAt: time.Now().UTC(),
	}

	err = indexer.Index(ctx, []domain.LoadAudit{record})
	require.NoError(t, err)

	res, err := es.Get("rdf-loads", record.ID, es.Get.WithContext(ctx))
	require.NoError(t, err)
	defer res.Body.Close()

	require.False(t, res.IsError(), "expected successful get, got status %s", res.Status())

	var body struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	err = json.NewDecoder(res.Body).Decode(&body)
	require.NoError(t, err)
	require.True(t, body.Found, "expected document to be found")

	var stored domain.LoadAudit
	require.NoError(t, json.Unmarshal(body.Source, &stored))
	require.Equal(t, record.SourceURI, stored.SourceURI)
	require.Equal(t, domain.OutcomeLoaded, stored.Outcome)

	// Re-delivered records are ignored, not overwritten.
	require.NoError(t, indexer.Index(ctx, []domain.LoadAudit{record}))
}


