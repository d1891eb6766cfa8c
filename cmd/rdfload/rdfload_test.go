package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimafallahian/go-rdfload/internal/config"
)

func setDeployment(t *testing.T, loaderEndpoint string) {
	t.Helper()
	for _, key := range config.RequiredKeys {
		t.Setenv(key, "value-of-"+key)
	}
	t.Setenv("neptune_s3_iam_role_arn", "arn:aws:iam::123456789012:role/neptune-load")
	t.Setenv("EKG_ID_BASE_INTERNAL", "https://ekg.example.com/id")
	t.Setenv("EKG_SPARQL_LOADER_ENDPOINT", loaderEndpoint)
	t.Setenv("DEPLOYMENT_SSM_PATH", "")
}

func writeNotification(t *testing.T, key string) string {
	t.Helper()
	inner, err := json.Marshal(`{"Records": [{"eventSource": "aws:s3", "eventName": "ObjectCreated:Put", "awsRegion": "eu-west-2",
		"s3": {"bucket": {"name": "bucket"}, "object": {"key": "` + key + `"}}}]}`)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Records": [{"Sns": {"Message": `+string(inner)+`}}]}`), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := RootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuild(t *testing.T) {
	setDeployment(t, "http://127.0.0.1:1/loader")

	out, err := run(t, "build", "--event", writeNotification(t, "data/file.ttl"))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "s3://bucket/data/file.ttl", payload["source"])
	require.Equal(t, "turtle", payload["format"])
	require.Equal(t, "eu-west-2", payload["region"])
	require.Equal(t, "arn:aws:iam::123456789012:role/neptune-load", payload["iamRoleArn"])
}

func TestBuildUnsupportedFormat(t *testing.T) {
	setDeployment(t, "http://127.0.0.1:1/loader")

	out, err := run(t, "build", "--event", writeNotification(t, "report.csv"))
	require.Error(t, err)
	require.Contains(t, out, "Unsupported RDF extension .csv")
}

func TestSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "200 OK", "payload": {"loadId": "load-7"}}`))
	}))
	t.Cleanup(srv.Close)
	setDeployment(t, srv.URL+"/loader")

	out, err := run(t, "submit", "--event", writeNotification(t, "data/file.nt"))
	require.NoError(t, err)
	require.Contains(t, out, `"loadId": "load-7"`)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/loader/load-7", r.URL.Path)
		require.Equal(t, "TRUE", r.URL.Query().Get("errors"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "200 OK", "payload": {"overallStatus": {"status": "LOAD_IN_PROGRESS"}}}`))
	}))
	t.Cleanup(srv.Close)
	setDeployment(t, srv.URL+"/loader")

	out, err := run(t, "status", "load-7", "--errors", "--page", "2")
	require.NoError(t, err)
	require.Contains(t, out, "LOAD_IN_PROGRESS")
}

func TestStatusRequiresLoadID(t *testing.T) {
	setDeployment(t, "http://127.0.0.1:1/loader")

	_, err := run(t, "status")
	require.Error(t, err)
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	setDeployment(t, srv.URL+"/loader")

	t.Run("deployment endpoint", func(t *testing.T) {
		out, err := run(t, "probe")
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(strings.TrimSpace(out), "is open"))
	})

	t.Run("missing host", func(t *testing.T) {
		out, err := run(t, "probe", "http:///loader")
		require.Error(t, err)
		require.Contains(t, out, "Loader endpoint's host name not specified in url [http:///loader]")
	})
}
