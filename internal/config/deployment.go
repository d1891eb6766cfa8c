package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// Deployment is the deployment configuration of the pipeline. Only
// NeptuneS3IAMRoleArn, RdfLoadWorkflowArn, IDBaseInternal and the loader
// endpoint drive the load; the rest is carried for logging and for the
// collaborators that share the same deployment.
type Deployment struct {
	LogGroupName string `env:"AWS_LAMBDA_LOG_GROUP_NAME"`

	NeptuneS3IAMRoleArn string `env:"neptune_s3_iam_role_arn"`
	RdfLoadWorkflowArn  string `env:"rdf_load_sfn_arn"`

	BaseInternal         string `env:"EKG_BASE_INTERNAL"`
	IDBaseInternal       string `env:"EKG_ID_BASE_INTERNAL"`
	GraphBaseInternal    string `env:"EKG_GRAPH_BASE_INTERNAL"`
	OntologyBaseInternal string `env:"EKG_ONTOLOGY_BASE_INTERNAL"`

	BaseExternal         string `env:"EKG_BASE_EXTERNAL"`
	IDBaseExternal       string `env:"EKG_ID_BASE_EXTERNAL"`
	GraphBaseExternal    string `env:"EKG_GRAPH_BASE_EXTERNAL"`
	OntologyBaseExternal string `env:"EKG_ONTOLOGY_BASE_EXTERNAL"`

	APIBase string `env:"EKG_API_BASE"`

	LoaderEndpoint string `env:"EKG_SPARQL_LOADER_ENDPOINT"`
	HealthEndpoint string `env:"EKG_SPARQL_HEALTH_ENDPOINT"`
	QueryEndpoint  string `env:"EKG_SPARQL_QUERY_ENDPOINT"`
	UpdateEndpoint string `env:"EKG_SPARQL_UPDATE_ENDPOINT"`
}

// RequiredKeys lists every deployment key in the order it is checked.
var RequiredKeys = []string{
	"AWS_LAMBDA_LOG_GROUP_NAME",
	"neptune_s3_iam_role_arn",
	"rdf_load_sfn_arn",
	"EKG_BASE_INTERNAL",
	"EKG_ID_BASE_INTERNAL",
	"EKG_GRAPH_BASE_INTERNAL",
	"EKG_ONTOLOGY_BASE_INTERNAL",
	"EKG_BASE_EXTERNAL",
	"EKG_ID_BASE_EXTERNAL",
	"EKG_GRAPH_BASE_EXTERNAL",
	"EKG_ONTOLOGY_BASE_EXTERNAL",
	"EKG_API_BASE",
	"EKG_SPARQL_LOADER_ENDPOINT",
	"EKG_SPARQL_HEALTH_ENDPOINT",
	"EKG_SPARQL_QUERY_ENDPOINT",
	"EKG_SPARQL_UPDATE_ENDPOINT",
}

// LoadDeployment reads the deployment configuration from a key/value
// mapping. The first absent key is reported as an input error naming it.
func LoadDeployment(environ map[string]string) (*Deployment, error) {
	for _, key := range RequiredKeys {
		if _, ok := environ[key]; !ok {
			return nil, domain.NewInputError(domain.ErrMissingConfig, "Environment variable %s not set", key)
		}
	}

	var dep Deployment
	if err := env.ParseWithOptions(&dep, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse deployment config: %w", err)
	}
	return &dep, nil
}

// Environ returns the process environment as a mapping.
func Environ() map[string]string {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			environ[key] = value
		}
	}
	return environ
}

// Overlay returns base with every entry of top applied over it.
func Overlay(base, top map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(top))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range top {
		merged[k] = v
	}
	return merged
}

// LogValue implements slog.LogValuer.
func (d *Deployment) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("AWS_LAMBDA_LOG_GROUP_NAME", d.LogGroupName),
		slog.String("neptune_s3_iam_role_arn", d.NeptuneS3IAMRoleArn),
		slog.String("rdf_load_sfn_arn", d.RdfLoadWorkflowArn),
		slog.String("EKG_BASE_INTERNAL", d.BaseInternal),
		slog.String("EKG_ID_BASE_INTERNAL", d.IDBaseInternal),
		slog.String("EKG_GRAPH_BASE_INTERNAL", d.GraphBaseInternal),
		slog.String("EKG_ONTOLOGY_BASE_INTERNAL", d.OntologyBaseInternal),
		slog.String("EKG_BASE_EXTERNAL", d.BaseExternal),
		slog.String("EKG_ID_BASE_EXTERNAL", d.IDBaseExternal),
		slog.String("EKG_GRAPH_BASE_EXTERNAL", d.GraphBaseExternal),
		slog.String("EKG_ONTOLOGY_BASE_EXTERNAL", d.OntologyBaseExternal),
		slog.String("EKG_API_BASE", d.APIBase),
		slog.String("EKG_SPARQL_LOADER_ENDPOINT", d.LoaderEndpoint),
		slog.String("EKG_SPARQL_HEALTH_ENDPOINT", d.HealthEndpoint),
		slog.String("EKG_SPARQL_QUERY_ENDPOINT", d.QueryEndpoint),
		slog.String("EKG_SPARQL_UPDATE_ENDPOINT", d.UpdateEndpoint),
	)
}
