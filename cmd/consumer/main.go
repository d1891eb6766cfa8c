// Command consumer reads storage notifications from Kafka, submits the
// derived loads directly to the bulk loader and records every outcome in
// Elasticsearch.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	elasticclient "github.com/elastic/go-elasticsearch/v8"
	"golang.org/x/sync/errgroup"

	esadapter "github.com/nimafallahian/go-rdfload/internal/adapters/es"
	kafkaadapter "github.com/nimafallahian/go-rdfload/internal/adapters/kafka"
	"github.com/nimafallahian/go-rdfload/internal/app"
	"github.com/nimafallahian/go-rdfload/internal/config"
	"github.com/nimafallahian/go-rdfload/internal/logging"
	"github.com/nimafallahian/go-rdfload/internal/metrics"
	"github.com/nimafallahian/go-rdfload/internal/pipeline"
	"github.com/nimafallahian/go-rdfload/internal/service"
)

func main() {
	cfg, err := config.LoadConsumer()
	if err != nil {
		logging.Setup("", "", os.Stdout).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	environ, err := app.Environ(ctx, &cfg.Config, nil)
	if err != nil {
		logger.Error("failed to read deployment parameters", "error", err)
		os.Exit(1)
	}

	kConsumer, err := kafkaadapter.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID,
		kafkaadapter.WithRetryTopic(cfg.KafkaRetryTopic),
	)
	if err != nil {
		logger.Error("failed to create kafka consumer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := kConsumer.Close(); cerr != nil {
			logger.Error("failed to close kafka consumer", "error", cerr)
		}
	}()

	retry, err := kafkaadapter.NewRetryPublisher(cfg.KafkaBrokers, cfg.KafkaRetryTopic)
	if err != nil {
		logger.Error("failed to create kafka retry publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := retry.Close(); cerr != nil {
			logger.Error("failed to close kafka retry publisher", "error", cerr)
		}
	}()

	esClient, err := elasticclient.NewClient(elasticclient.Config{
		Addresses: cfg.ElasticURLs,
	})
	if err != nil {
		logger.Error("failed to create elasticsearch client", "error", err)
		os.Exit(1)
	}

	indexer, err := esadapter.NewIndexer(esClient, cfg.ElasticIndex)
	if err != nil {
		logger.Error("failed to create elasticsearch indexer", "error", err)
		os.Exit(1)
	}

	loader := app.Loader(&cfg.Config, logger, cfg.LoaderRateLimit)
	defer loader.Close()

	m := metrics.New()
	p := app.Pipeline(environ, logger, pipeline.WithLoader(loader))

	hostname, _ := os.Hostname()
	svc := service.NewLoadService(kConsumer, p, indexer, cfg.WorkerCount,
		service.WithIdentity("rdf-load-consumer/"+hostname),
		service.WithRetryPublisher(retry),
		service.WithRetryDelay(cfg.RetryDelay),
		service.WithMetrics(m),
		service.WithLogger(logger),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.Start(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service terminated with error", "error", err)
	}
}
