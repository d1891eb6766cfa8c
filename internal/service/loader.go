package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nimafallahian/go-rdfload/internal/domain"
	"github.com/nimafallahian/go-rdfload/internal/metrics"
	"github.com/nimafallahian/go-rdfload/internal/ports"
)

// Processor turns a raw notification into a load and submits it.
// *pipeline.Pipeline satisfies it.
type Processor interface {
	Prepare(exec domain.ExecutionContext, event []byte) (*domain.LoadRequest, error)
	Submit(ctx context.Context, req *domain.LoadRequest) domain.Result
}

// LoadService orchestrates reading notifications from Kafka, submitting the
// derived loads, recording their outcome and acknowledging offsets.
type LoadService struct {
	consumer    ports.NotificationConsumer
	processor   Processor
	indexer     ports.AuditIndexer
	workerCount int

	retry      ports.RetryPublisher
	retryDelay time.Duration

	identity string
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a LoadService.
type ServiceOption func(*LoadService)

// WithIdentity sets the identity recorded as the invoking function of every
// load request, in place of a Lambda function ARN.
func WithIdentity(id string) ServiceOption {
	return func(s *LoadService) { s.identity = id }
}

// WithRetryPublisher sets where notifications with a retriable result are
// sent for a later attempt. Without one such notifications stay uncommitted.
func WithRetryPublisher(p ports.RetryPublisher) ServiceOption {
	return func(s *LoadService) { s.retry = p }
}

// WithRetryDelay sets the minimum age of a redelivered notification before
// it is processed again.
func WithRetryDelay(d time.Duration) ServiceOption {
	return func(s *LoadService) { s.retryDelay = d }
}

// WithMetrics sets the outcome counters.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *LoadService) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *LoadService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewLoadService constructs a new LoadService. A nil indexer disables the
// audit trail.
func NewLoadService(consumer ports.NotificationConsumer, processor Processor, indexer ports.AuditIndexer, workerCount int, opts ...ServiceOption) *LoadService {
	if workerCount <= 0 {
		workerCount = 1
	}
	s := &LoadService{
		consumer:    consumer,
		processor:   processor,
		indexer:     indexer,
		workerCount: workerCount,
		identity:    "rdf-load-consumer",
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins consuming notifications and processing them with a worker
// pool. It blocks until the context is cancelled.
func (s *LoadService) Start(ctx context.Context) {
	msgCh, errCh := s.consumer.Consume(ctx)

	var wg sync.WaitGroup
	wg.Add(s.workerCount)

	for i := 0; i < s.workerCount; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgCh:
					if !ok {
						return
					}
					s.handleMessage(ctx, msg)
				}
			}
		}()
	}

	// Drain error channel in a separate goroutine to avoid blocking producers.
	go func() {
		for err := range errCh {
			s.logger.Error("consumer error", "error", err)
		}
	}()

	<-ctx.Done()
	wg.Wait()
}

func (s *LoadService) handleMessage(ctx context.Context, msg ports.KafkaMessage) {
	if !s.backoff(ctx, msg) {
		return
	}

	exec := domain.ExecutionContext{
		InvokedFunctionArn: s.identity,
		RequestID:          fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset),
	}

	var (
		res      domain.Result
		inputErr bool
	)
	req, err := s.processor.Prepare(exec, msg.Value)
	if err != nil {
		res = domain.ResultFromError(err)
		inputErr = domain.IsInputError(err)
		s.logger.Error("notification rejected", "request_id", exec.RequestID, "error", err)
	} else {
		res = s.processor.Submit(ctx, req)
	}

	s.metrics.Observe(res, inputErr)
	s.record(ctx, msg, req, res, inputErr)

	// Input errors cannot be fixed by redelivery: acknowledge to clear them.
	// A retriable notification is republished first and only then committed;
	// kafka-go never refetches an uncommitted message within a session, and a
	// later commit on the partition would skip it.
	if !inputErr && res.IsRetriable() {
		if s.retry == nil {
			s.logger.Error("retriable load left uncommitted, no retry publisher",
				"request_id", exec.RequestID,
				"status_code", res.StatusCode,
			)
			return
		}
		if err := s.retry.Republish(ctx, msg); err != nil {
			s.logger.Error("retriable load not republished, left uncommitted",
				"request_id", exec.RequestID,
				"error", err,
			)
			return
		}
		s.logger.Warn("load republished for retry",
			"request_id", exec.RequestID,
			"attempt", msg.Attempt+1,
			"status_code", res.StatusCode,
			"status_code_detail", res.StatusCodeDetail,
		)
	}

	if msg.Commit != nil {
		if err := msg.Commit(ctx); err != nil {
			s.logger.Error("commit failed", "request_id", exec.RequestID, "error", err)
		}
	}
}

// backoff holds a redelivered notification until it is retryDelay old. It
// reports false when ctx ends first.
func (s *LoadService) backoff(ctx context.Context, msg ports.KafkaMessage) bool {
	if msg.Attempt == 0 || s.retryDelay <= 0 || msg.Time.IsZero() {
		return true
	}
	wait := msg.Time.Add(s.retryDelay).Sub(s.now())
	if wait <= 0 {
		return true
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *LoadService) record(ctx context.Context, msg ports.KafkaMessage, req *domain.LoadRequest, res domain.Result, inputErr bool) {
	if s.indexer == nil {
		return
	}

	rec := domain.LoadAudit{
		ID:               uuid.NewString(),
		Outcome:          domain.Outcome(res, inputErr),
		StatusCode:       res.StatusCode,
		StatusCodeDetail: res.StatusCodeDetail,
		StatusError:      res.StatusError,
		StatusDetail:     res.StatusDetail,
		Topic:            msg.Topic,
		Partition:        msg.Partition,
		Offset:           msg.Offset,
		ProcessedAt:      s.now().UTC(),
	}
	if req != nil {
		rec.SourceURI = req.SourceURI
		rec.Format = req.Format
		rec.Region = req.RegionCode
	}

	if err := s.indexer.Index(ctx, []domain.LoadAudit{rec}); err != nil {
		s.metrics.AuditFailed()
		s.logger.Error("audit record not indexed", "id", rec.ID, "error", err)
	}
}
