package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

const s3Record = `{
	"eventVersion": "2.1",
	"eventSource": "aws:s3",
	"awsRegion": "eu-west-2",
	"eventTime": "2023-09-18T10:03:15.979Z",
	"eventName": "ObjectCreated:Put",
	"s3": {
		"s3SchemaVersion": "1.0",
		"bucket": {"name": "bucket", "arn": "arn:aws:s3:::bucket"},
		"object": {"key": "data/file.ttl", "size": 1206, "eTag": "455c556f7d1b7f8587ecabe2dd8184af"}
	}
}`

// snsEvent wraps the given S3 records into an SNS message and the SNS
// message into the given number of Lambda event records.
func snsEvent(t *testing.T, snsRecords int, s3Records ...string) []byte {
	t.Helper()

	inner := `{"Records": [`
	for i, r := range s3Records {
		if i > 0 {
			inner += ","
		}
		inner += r
	}
	inner += `]}`

	message, err := json.Marshal(inner)
	require.NoError(t, err)

	record := `{"EventSource": "aws:sns", "Sns": {"Type": "Notification", "Message": ` + string(message) + `}}`
	event := `{"Records": [`
	for i := 0; i < snsRecords; i++ {
		if i > 0 {
			event += ","
		}
		event += record
	}
	event += `]}`
	return []byte(event)
}

func TestDecode_SingleObjectCreated(t *testing.T) {
	obj, err := Decode(snsEvent(t, 1, s3Record))
	require.NoError(t, err)

	require.Equal(t, "ObjectCreated:Put", obj.EventName)
	require.Equal(t, "aws:s3", obj.EventSource)
	require.Equal(t, "eu-west-2", obj.Region)
	require.Equal(t, "bucket", obj.Bucket)
	require.Equal(t, "data/file.ttl", obj.Key)
	require.NotNil(t, obj.Size)
	require.EqualValues(t, 1206, *obj.Size)
	require.Equal(t, "s3://bucket/data/file.ttl", obj.URI())
	require.True(t, obj.IsCreation())
}

func TestDecode_SizeIsOptional(t *testing.T) {
	record := `{"eventName": "ObjectCreated:Copy", "awsRegion": "eu-west-1",
		"s3": {"bucket": {"name": "b"}, "object": {"key": "k.nt"}}}`

	obj, err := Decode(snsEvent(t, 1, record))
	require.NoError(t, err)
	require.Nil(t, obj.Size)
	require.Equal(t, "k.nt", obj.Key)
}

func TestDecode_NonCreationEventIsNotRejected(t *testing.T) {
	record := `{"eventName": "ObjectRemoved:Delete", "awsRegion": "eu-west-1",
		"s3": {"bucket": {"name": "b"}, "object": {"key": "k.ttl"}}}`

	obj, err := Decode(snsEvent(t, 1, record))
	require.NoError(t, err)
	require.False(t, obj.IsCreation())
}

func TestDecode_RecordCardinality(t *testing.T) {
	tests := []struct {
		name    string
		event   []byte
		wantErr string
	}{
		{name: "no event records", event: snsEvent(t, 0), wantErr: "No records in event"},
		{name: "two event records", event: snsEvent(t, 2, s3Record), wantErr: "More than one record in event"},
		{name: "no sns message records", event: snsEvent(t, 1), wantErr: "No records in sns message"},
		{name: "two sns message records", event: snsEvent(t, 1, s3Record, s3Record), wantErr: "More than one record in sns message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.event)
			require.ErrorIs(t, err, domain.ErrMalformedEnvelope)
			require.EqualError(t, err, tt.wantErr)

			var inputErr *domain.InputError
			require.ErrorAs(t, err, &inputErr)
			require.Equal(t, 500, inputErr.Status)
		})
	}
}

func TestDecode_MissingKeys(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		wantErr string
	}{
		{name: "not json", event: `{"Records": [`, wantErr: "Event is not valid JSON"},
		{name: "no Records", event: `{}`, wantErr: "No Records in event"},
		{name: "Records not a list", event: `{"Records": {}}`, wantErr: "Records in event is not a list"},
		{name: "no Sns", event: `{"Records": [{}]}`, wantErr: "No Sns in event record"},
		{name: "no Message", event: `{"Records": [{"Sns": {}}]}`, wantErr: "No Message in sns event"},
		{name: "Message not a string", event: `{"Records": [{"Sns": {"Message": {"Records": []}}}]}`, wantErr: "Message in sns event is not a string"},
		{name: "Message not json", event: `{"Records": [{"Sns": {"Message": "not json"}}]}`, wantErr: "Message in sns event is not valid JSON"},
		{name: "no inner Records", event: `{"Records": [{"Sns": {"Message": "{}"}}]}`, wantErr: "No Records in sns message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.event))
			require.ErrorIs(t, err, domain.ErrMalformedEnvelope)
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestDecode_MissingRecordKeys(t *testing.T) {
	tests := []struct {
		key    string
		record string
	}{
		{"eventName", `{"awsRegion": "r", "s3": {"bucket": {"name": "b"}, "object": {"key": "k"}}}`},
		{"awsRegion", `{"eventName": "e", "s3": {"bucket": {"name": "b"}, "object": {"key": "k"}}}`},
		{"s3", `{"eventName": "e", "awsRegion": "r"}`},
		{"s3.bucket", `{"eventName": "e", "awsRegion": "r", "s3": {"object": {"key": "k"}}}`},
		{"s3.bucket.name", `{"eventName": "e", "awsRegion": "r", "s3": {"bucket": {}, "object": {"key": "k"}}}`},
		{"s3.object", `{"eventName": "e", "awsRegion": "r", "s3": {"bucket": {"name": "b"}}}`},
		{"s3.object.key", `{"eventName": "e", "awsRegion": "r", "s3": {"bucket": {"name": "b"}, "object": {"size": 1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := Decode(snsEvent(t, 1, tt.record))
			require.ErrorIs(t, err, domain.ErrMalformedEnvelope)
			require.EqualError(t, err, "No "+tt.key+" in sns message record")
		})
	}
}
