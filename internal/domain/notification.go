package domain

import (
	"fmt"
	"strings"
)

// ObjectCreated is the innermost storage record of a notification: one
// object that landed in a bucket.
type ObjectCreated struct {
	EventName   string
	EventSource string
	Region      string
	Bucket      string
	Key         string
	Size        *int64
}

// URI returns the fully-qualified storage URI of the object.
func (o ObjectCreated) URI() string {
	return fmt.Sprintf("s3://%s/%s", o.Bucket, o.Key)
}

// IsCreation reports whether the event name is one of the ObjectCreated:* events.
func (o ObjectCreated) IsCreation() bool {
	return strings.HasPrefix(o.EventName, "ObjectCreated:")
}

// ExecutionContext identifies the host invocation that runs the pipeline.
type ExecutionContext struct {
	InvokedFunctionArn string
	RequestID          string
	LogGroupName       string
	LogStreamName      string
	MemoryLimitInMB    int
}
