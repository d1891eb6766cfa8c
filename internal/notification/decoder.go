// Package notification unwraps storage notifications delivered through SNS.
//
// The Lambda event carries one SNS record whose Message is a JSON document
// encoded as a string; that document in turn carries one S3 event record:
//
//	{"Records": [{"Sns": {"Message": "{\"Records\": [{\"eventName\": ..., \"s3\": {...}}]}"}}]}
package notification

import (
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// Decoder resolves a notification into its single ObjectCreated record.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder constructs a Decoder. A nil logger means slog.Default().
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// Decode is shorthand for NewDecoder(nil).Decode.
func Decode(event []byte) (domain.ObjectCreated, error) {
	return NewDecoder(nil).Decode(event)
}

// Decode unwraps both nesting levels. Any cardinality other than exactly one
// record at either level, and any missing required key, is an input error.
func (d *Decoder) Decode(event []byte) (domain.ObjectCreated, error) {
	if !gjson.ValidBytes(event) {
		return domain.ObjectCreated{}, malformed("Event is not valid JSON")
	}
	d.logger.Debug("event", "event", string(event))

	eventRecord, err := singleRecord(gjson.ParseBytes(event), "event")
	if err != nil {
		return domain.ObjectCreated{}, err
	}

	snsEvent := eventRecord.Get("Sns")
	if !snsEvent.Exists() {
		return domain.ObjectCreated{}, malformed("No Sns in event record")
	}
	snsMessage := snsEvent.Get("Message")
	if !snsMessage.Exists() {
		return domain.ObjectCreated{}, malformed("No Message in sns event")
	}
	if snsMessage.Type != gjson.String {
		return domain.ObjectCreated{}, malformed("Message in sns event is not a string")
	}
	d.logger.Debug("sns message as string", "message", snsMessage.Str)

	// The message is a JSON document embedded as a string.
	if !gjson.Valid(snsMessage.Str) {
		return domain.ObjectCreated{}, malformed("Message in sns event is not valid JSON")
	}
	record, err := singleRecord(gjson.Parse(snsMessage.Str), "sns message")
	if err != nil {
		return domain.ObjectCreated{}, err
	}
	d.logger.Debug("sns message record", "record", record.Raw)

	obj, err := objectCreated(record)
	if err != nil {
		return domain.ObjectCreated{}, err
	}

	d.logger.Debug("event", "source", obj.EventSource, "name", obj.EventName)
	d.logger.Debug("s3 bucket", "bucket", obj.Bucket, "region", obj.Region)
	d.logger.Info("s3 object", "key", obj.Key, "uri", obj.URI())
	if obj.Size != nil {
		d.logger.Info("s3 object size", "size", *obj.Size)
	}
	if !obj.IsCreation() {
		d.logger.Warn("notification is not an object creation event", "event_name", obj.EventName)
	}

	return obj, nil
}

func singleRecord(doc gjson.Result, level string) (gjson.Result, error) {
	records := doc.Get("Records")
	if !records.Exists() {
		return gjson.Result{}, malformed("No Records in %s", level)
	}
	if !records.IsArray() {
		return gjson.Result{}, malformed("Records in %s is not a list", level)
	}

	items := records.Array()
	switch {
	case len(items) == 0:
		return gjson.Result{}, malformed("No records in %s", level)
	case len(items) > 1:
		return gjson.Result{}, malformed("More than one record in %s", level)
	}
	return items[0], nil
}

func objectCreated(record gjson.Result) (domain.ObjectCreated, error) {
	required := []string{"eventName", "awsRegion", "s3", "s3.bucket", "s3.bucket.name", "s3.object", "s3.object.key"}
	for _, key := range required {
		if !record.Get(key).Exists() {
			return domain.ObjectCreated{}, malformed("No %s in sns message record", key)
		}
	}

	obj := domain.ObjectCreated{
		EventName:   record.Get("eventName").String(),
		EventSource: record.Get("eventSource").String(),
		Region:      record.Get("awsRegion").String(),
		Bucket:      record.Get("s3.bucket.name").String(),
		Key:         record.Get("s3.object.key").String(),
	}
	if size := record.Get("s3.object.size"); size.Exists() {
		n := size.Int()
		obj.Size = &n
	}
	return obj, nil
}

func malformed(format string, args ...any) error {
	return domain.NewInputError(domain.ErrMalformedEnvelope, format, args...)
}
