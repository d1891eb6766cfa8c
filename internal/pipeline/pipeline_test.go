package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/domain"
)

type mockTrigger struct {
	mock.Mock
}

func (m *mockTrigger) Start(ctx context.Context, workflowID string, payload []byte) (string, error) {
	args := m.Called(ctx, workflowID, payload)
	return args.String(0), args.Error(1)
}

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Submit(ctx context.Context, endpoint string, payload []byte) domain.Result {
	args := m.Called(ctx, endpoint, payload)
	return args.Get(0).(domain.Result)
}

func (m *mockLoader) Status(ctx context.Context, endpoint string, req domain.LoaderStatusRequest) domain.Result {
	args := m.Called(ctx, endpoint, req)
	return args.Get(0).(domain.Result)
}

const (
	workflowArn    = "arn:aws:states:eu-west-2:123456789012:stateMachine:rdf-load"
	loaderEndpoint = "https://neptune.example.com:8182/loader"
)

func testEnviron() map[string]string {
	environ := make(map[string]string, len(config.RequiredKeys))
	for _, key := range config.RequiredKeys {
		environ[key] = "value-of-" + key
	}
	environ["neptune_s3_iam_role_arn"] = "arn:aws:iam::123456789012:role/neptune-load"
	environ["rdf_load_sfn_arn"] = workflowArn
	environ["EKG_ID_BASE_INTERNAL"] = "https://ekg.example.com/id"
	environ["EKG_SPARQL_LOADER_ENDPOINT"] = loaderEndpoint
	return environ
}

var testExec = domain.ExecutionContext{
	InvokedFunctionArn: "arn:aws:lambda:eu-west-2:123456789012:function:invoke",
	RequestID:          "req-1",
}

// notificationFor builds an SNS-wrapped S3 notification for one object.
func notificationFor(t *testing.T, key string) []byte {
	t.Helper()

	inner := fmt.Sprintf(`{"Records": [{"eventSource": "aws:s3", "eventName": "ObjectCreated:Put", "awsRegion": "eu-west-2",
		"s3": {"bucket": {"name": "bucket"}, "object": {"key": %q, "size": 1206}}}]}`, key)
	message, err := json.Marshal(inner)
	require.NoError(t, err)
	return []byte(`{"Records": [{"Sns": {"Message": ` + string(message) + `}}]}`)
}

func TestPrepare_ScenarioA(t *testing.T) {
	p := NewFromEnviron(testEnviron())

	req, err := p.Prepare(testExec, notificationFor(t, "data/file.ttl"))
	require.NoError(t, err)

	require.Equal(t, &domain.LoadRequest{
		InvokedFunctionArn:  testExec.InvokedFunctionArn,
		NeptuneS3IAMRoleArn: "arn:aws:iam::123456789012:role/neptune-load",
		RdfLoadWorkflowArn:  workflowArn,
		SourceURI:           "s3://bucket/data/file.ttl",
		Format:              domain.FormatTurtle,
		RegionCode:          "eu-west-2",
		IDBaseInternal:      "https://ekg.example.com/id",
	}, req)
}

func TestPrepare_ErrorOrder(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		exec    domain.ExecutionContext
		event   []byte
		wantErr string
		kind    error
	}{
		{
			name: "missing config wins over malformed event",
			environ: func() map[string]string {
				e := testEnviron()
				delete(e, "EKG_API_BASE")
				return e
			}(),
			exec:    testExec,
			event:   []byte(`{}`),
			wantErr: "Environment variable EKG_API_BASE not set",
			kind:    domain.ErrMissingConfig,
		},
		{
			name:    "malformed event",
			environ: testEnviron(),
			exec:    testExec,
			event:   []byte(`{"Records": []}`),
			wantErr: "No records in event",
			kind:    domain.ErrMalformedEnvelope,
		},
		{
			name:    "unsupported format",
			environ: testEnviron(),
			exec:    testExec,
			event:   notificationFor(t, "report.csv"),
			wantErr: "Unsupported RDF extension .csv",
			kind:    domain.ErrUnsupportedFormat,
		},
		{
			name:    "missing function arn",
			environ: testEnviron(),
			exec:    domain.ExecutionContext{},
			event:   notificationFor(t, "data/file.ttl"),
			wantErr: "Load request error: invokedFunctionArn not set",
			kind:    domain.ErrInvalidLoadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFromEnviron(tt.environ)

			req, err := p.Prepare(tt.exec, tt.event)
			require.Nil(t, req)
			require.ErrorIs(t, err, tt.kind)
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestInvoke_StartsWorkflowWithPayload(t *testing.T) {
	trigger := &mockTrigger{}
	trigger.On("Start", mock.Anything, workflowArn, mock.Anything).
		Return("exec-1", nil).
		Run(func(args mock.Arguments) {
			var payload domain.LoaderPayload
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &payload))
			require.Equal(t, "s3://bucket/data/file.ttl", payload.Source)
			require.Equal(t, domain.FormatTurtle, payload.Format)
			require.Equal(t, "eu-west-2", payload.Region)
			require.Equal(t, "s3://bucket/data/file.ttl", payload.ParserConfiguration.NamedGraphURI)
			require.Equal(t, "https://ekg.example.com/id/", payload.ParserConfiguration.BaseURI)
		})

	p := NewFromEnviron(testEnviron(), WithTrigger(trigger))
	res := p.Invoke(context.Background(), testExec, notificationFor(t, "data/file.ttl"))

	require.Equal(t, domain.Result{}, res)
	out, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(out))
	trigger.AssertExpectations(t)
}

func TestInvoke_ScenarioB(t *testing.T) {
	trigger := &mockTrigger{}
	loader := &mockLoader{}

	p := NewFromEnviron(testEnviron(), WithTrigger(trigger), WithLoader(loader))
	res := p.Invoke(context.Background(), testExec, notificationFor(t, "report.csv"))

	require.Equal(t, domain.Result{StatusCode: 500, StatusError: "Unsupported RDF extension .csv"}, res)
	trigger.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
	loader.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoke_TriggerFailure(t *testing.T) {
	trigger := &mockTrigger{}
	trigger.On("Start", mock.Anything, workflowArn, mock.Anything).
		Return("", errors.New("start execution: AccessDeniedException"))

	p := NewFromEnviron(testEnviron(), WithTrigger(trigger))
	res := p.Invoke(context.Background(), testExec, notificationFor(t, "data/file.nt"))

	require.Equal(t, 500, res.StatusCode)
	require.Equal(t, "Workflow start failed: start execution: AccessDeniedException", res.StatusError)
	require.True(t, res.IsRetriable())
}

func TestInvoke_NoTrigger(t *testing.T) {
	p := NewFromEnviron(testEnviron())
	res := p.Invoke(context.Background(), testExec, notificationFor(t, "data/file.ttl"))

	require.Equal(t, 500, res.StatusCode)
	require.Contains(t, res.StatusError, "Workflow start failed: ")
}

func TestSubmit_PostsPayloadToLoaderEndpoint(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Submit", mock.Anything, loaderEndpoint, mock.Anything).
		Return(domain.Result{StatusCode: 200, StatusDetail: json.RawMessage(`{"loadId":"abc"}`)})

	p := NewFromEnviron(testEnviron(), WithLoader(loader))
	req, err := p.Prepare(testExec, notificationFor(t, "data/file.ttl"))
	require.NoError(t, err)

	res := p.Submit(context.Background(), req)
	require.Equal(t, 200, res.StatusCode)
	require.JSONEq(t, `{"loadId":"abc"}`, string(res.StatusDetail))

	want, err := domain.NewLoaderPayload(req)
	require.NoError(t, err)
	wantBytes, err := want.Marshal()
	require.NoError(t, err)
	loader.AssertCalled(t, "Submit", mock.Anything, loaderEndpoint, wantBytes)
}

func TestSubmit_InvalidRequest(t *testing.T) {
	loader := &mockLoader{}
	p := NewFromEnviron(testEnviron(), WithLoader(loader))

	res := p.Submit(context.Background(), &domain.LoadRequest{InvokedFunctionArn: "arn"})
	require.Equal(t, domain.Result{StatusCode: 500, StatusError: "Load request error: neptuneS3IamRoleArn not set"}, res)
	loader.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoad_PassesResultThrough(t *testing.T) {
	rejected := domain.Result{
		StatusCode:       400,
		StatusCodeDetail: domain.DetailMaxConcurrentLoadLimitBreached,
		StatusError:      "HTTP Error occurred: 400, Max concurrent load limit breached",
	}
	loader := &mockLoader{}
	loader.On("Submit", mock.Anything, loaderEndpoint, []byte(`{"source":"s3://bucket/data/file.ttl"}`)).Return(rejected)

	p := NewFromEnviron(testEnviron(), WithLoader(loader))
	res := p.Load(context.Background(), []byte(`{"source":"s3://bucket/data/file.ttl"}`))

	require.Equal(t, rejected, res)
	loader.AssertExpectations(t)
}

func TestLoad_MissingConfig(t *testing.T) {
	environ := testEnviron()
	delete(environ, "EKG_SPARQL_LOADER_ENDPOINT")
	loader := &mockLoader{}

	p := NewFromEnviron(environ, WithLoader(loader))
	res := p.Load(context.Background(), []byte(`{}`))

	require.Equal(t, domain.Result{StatusCode: 500, StatusError: "Environment variable EKG_SPARQL_LOADER_ENDPOINT not set"}, res)
	loader.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheck(t *testing.T) {
	status := domain.LoaderStatusRequest{LoadID: "abc", Details: true}
	loader := &mockLoader{}
	loader.On("Status", mock.Anything, loaderEndpoint, status).
		Return(domain.Result{StatusCode: 200, StatusDetail: json.RawMessage(`{"overallStatus":{"status":"LOAD_IN_PROGRESS"}}`)})

	p := NewFromEnviron(testEnviron(), WithLoader(loader))

	res := p.Check(context.Background(), status)
	require.Equal(t, 200, res.StatusCode)

	res = p.Check(context.Background(), domain.LoaderStatusRequest{})
	require.Equal(t, domain.Result{StatusCode: 500, StatusError: "Loader Get-Status request error: loadId not set"}, res)
	loader.AssertNumberOfCalls(t, "Status", 1)
}

func TestNew_WithoutDeployment(t *testing.T) {
	p := New(nil)
	res := p.Load(context.Background(), []byte(`{}`))
	require.Equal(t, domain.Result{StatusCode: 500, StatusError: "Deployment configuration not loaded"}, res)
}

func TestStripLoadOutput(t *testing.T) {
	tests := []struct {
		name  string
		event string
		want  string
	}{
		{name: "no LoadOutput", event: `{"source":"s3://b/k.ttl","format":"turtle"}`, want: `{"source":"s3://b/k.ttl","format":"turtle"}`},
		{name: "LoadOutput removed", event: `{"source":"s3://b/k.ttl","LoadOutput":{"statusCode":500}}`, want: `{"source":"s3://b/k.ttl"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := StripLoadOutput([]byte(tt.event))
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(out))
		})
	}
}

func TestLoadIDFromOutput(t *testing.T) {
	id, err := LoadIDFromOutput([]byte(`{"LoadOutput": {"statusCode": 200, "statusDetail": {"loadId": "abc"}}}`))
	require.NoError(t, err)
	require.Equal(t, "abc", id)

	tests := []struct {
		event   string
		wantErr string
	}{
		{event: `not json`, wantErr: "Event is not valid JSON"},
		{event: `{}`, wantErr: "No LoadOutput in event"},
		{event: `{"LoadOutput": {"statusCode": 500, "statusError": "Timeout occurred"}}`, wantErr: "No statusDetail.loadId in LoadOutput"},
	}
	for _, tt := range tests {
		t.Run(tt.wantErr, func(t *testing.T) {
			_, err := LoadIDFromOutput([]byte(tt.event))
			require.ErrorIs(t, err, domain.ErrMalformedEnvelope)
			require.EqualError(t, err, tt.wantErr)
		})
	}
}
