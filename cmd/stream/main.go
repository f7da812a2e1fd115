package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"

	"solana-dex-stream/internal/datasource"
	"solana-dex-stream/internal/observability"
	"solana-dex-stream/internal/pipeline"
	"solana-dex-stream/internal/publish"
	"solana-dex-stream/internal/solana"
	"solana-dex-stream/internal/storage"
	chstore "solana-dex-stream/internal/storage/clickhouse"
	"solana-dex-stream/internal/storage/migrations"
	pgstore "solana-dex-stream/internal/storage/postgres"
)

func main() {
	// Parse flags
	wsEndpoint := flag.String("ws-endpoint", "", "Solana WebSocket endpoint")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	mentions := flag.String("mentions", "", "Only notify blocks mentioning this account or program (empty for all)")
	commitment := flag.String("commitment", solana.CommitmentConfirmed, "Commitment level: processed, confirmed, or finalized")
	queueSize := flag.Int("queue-size", datasource.DefaultSlotQueueSize, "Bounded slot queue capacity")
	maxReconnects := flag.Int("max-reconnects", datasource.DefaultMaxReconnectAttempts, "Consecutive WS reconnect attempts before giving up")
	reconnectDelay := flag.Duration("reconnect-delay", datasource.DefaultReconnectDelay, "Fixed delay between WS reconnect attempts")
	publishers := flag.String("publishers", "log", "Comma-separated sinks: zmq, kafka, log")
	topic := flag.String("topic", "dex-events", "Topic events are published under")
	zmqBind := flag.String("zmq-bind", "tcp://127.0.0.1:5556", "ZeroMQ PUB bind endpoint")
	kafkaBrokers := flag.String("kafka-brokers", "localhost:9092", "Comma-separated Kafka bootstrap brokers")
	kafkaTimeout := flag.Duration("kafka-timeout", publish.DefaultKafkaTimeout, "Per-produce Kafka timeout")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN for the event archive (empty to disable)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for the event archive (empty to disable)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[stream] ", log.LstdFlags|log.Lshortfile)

	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *postgresDSN != "" && *clickhouseDSN != "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are mutually exclusive")
	}

	metrics := observability.NewMetrics("")

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, metrics, runOptions{
		wsEndpoint:     *wsEndpoint,
		rpcEndpoint:    *rpcEndpoint,
		mentions:       *mentions,
		commitment:     *commitment,
		queueSize:      *queueSize,
		maxReconnects:  *maxReconnects,
		reconnectDelay: *reconnectDelay,
		publishers:     *publishers,
		topic:          *topic,
		zmqBind:        *zmqBind,
		kafkaBrokers:   *kafkaBrokers,
		kafkaTimeout:   *kafkaTimeout,
		postgresDSN:    *postgresDSN,
		clickhouseDSN:  *clickhouseDSN,
	})

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type runOptions struct {
	wsEndpoint     string
	rpcEndpoint    string
	mentions       string
	commitment     string
	queueSize      int
	maxReconnects  int
	reconnectDelay time.Duration
	publishers     string
	topic          string
	zmqBind        string
	kafkaBrokers   string
	kafkaTimeout   time.Duration
	postgresDSN    string
	clickhouseDSN  string
}

// run wires the datasource, scheduler, publisher, and archive together and
// blocks until the first of them fails or the context is cancelled.
func run(ctx context.Context, logger *log.Logger, metrics *observability.Metrics, opts runOptions) error {
	publisher, err := buildPublisher(ctx, logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Printf("Closing publisher: %v", err)
		}
	}()

	store, cleanup, err := buildStore(ctx, logger, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(opts.rpcEndpoint)

	dial := func(ctx context.Context) (solana.WSClient, error) {
		return solana.NewWSClient(ctx, opts.wsEndpoint, nil)
	}

	notifier := datasource.NewSlotNotifier(dial, datasource.NotifierConfig{
		Filter: solana.BlockFilter{
			MentionsAccountOrProgram: opts.mentions,
			Commitment:               opts.commitment,
		},
		MaxReconnectAttempts: opts.maxReconnects,
		ReconnectDelay:       opts.reconnectDelay,
	}, metrics, logger)

	fetcher := datasource.NewBlockFetcher(rpc, datasource.FetcherConfig{
		Commitment: opts.commitment,
	}, metrics, logger)

	source := datasource.NewHybridDatasource(notifier, fetcher, datasource.HybridConfig{
		SlotQueueSize: opts.queueSize,
	}, logger)

	scheduler := pipeline.NewScheduler(pipeline.SchedulerOptions{
		Publisher: publisher,
		Topic:     opts.topic,
		Store:     store,
		Metrics:   metrics,
		Logger:    logger,
	})

	updates := make(chan *datasource.TransactionUpdate, 256)

	sourceDone := make(chan error, 1)
	go func() {
		err := source.Consume(ctx, updates)
		close(updates)
		sourceDone <- err
	}()

	schedulerDone := make(chan error, 1)
	go func() {
		schedulerDone <- scheduler.Run(ctx, updates)
	}()

	select {
	case err := <-sourceDone:
		// The closed updates channel drains and stops the scheduler;
		// wait for it so the publisher is not closed mid-publish.
		<-schedulerDone
		return err
	case err := <-schedulerDone:
		return err
	}
}

// buildPublisher assembles the fan-out from the --publishers list.
func buildPublisher(ctx context.Context, logger *log.Logger, opts runOptions) (publish.Publisher, error) {
	multi := publish.NewMultiPublisher()

	for _, name := range strings.Split(opts.publishers, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "":
			continue
		case "zmq":
			zmq, err := publish.NewZMQPublisher(ctx, opts.zmqBind)
			if err != nil {
				return nil, fmt.Errorf("create zmq publisher: %w", err)
			}
			logger.Printf("ZeroMQ publisher bound to %s", opts.zmqBind)
			multi = multi.WithSink(zmq)
		case "kafka":
			m := kprom.NewMetrics("solana_dex_stream_kafka",
				kprom.Registerer(prometheus.DefaultRegisterer),
				kprom.Gatherer(prometheus.DefaultGatherer))
			kcl, err := kgo.NewClient(
				kgo.WithHooks(m),
				kgo.SeedBrokers(strings.Split(opts.kafkaBrokers, ",")...),
				kgo.DefaultProduceTopic(opts.topic),
				kgo.ProducerBatchCompression(kgo.ZstdCompression()),
			)
			if err != nil {
				return nil, fmt.Errorf("create kafka client: %w", err)
			}
			logger.Printf("Kafka publisher using brokers %s", opts.kafkaBrokers)
			multi = multi.WithSink(publish.NewKafkaPublisher(kcl, opts.kafkaTimeout))
		case "log":
			multi = multi.WithSink(publish.NewLogPublisher(logger))
		default:
			return nil, fmt.Errorf("unknown publisher %q", name)
		}
	}

	if multi.Sinks() == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	return multi, nil
}

// buildStore opens the optional event archive. Returns a nil store when no
// DSN is configured.
func buildStore(ctx context.Context, logger *log.Logger, opts runOptions) (storage.DexEventStore, func(), error) {
	switch {
	case opts.postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		logger.Println("Archiving events to PostgreSQL")
		return pgstore.NewDexEventStore(pool), pool.Close, nil

	case opts.clickhouseDSN != "":
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		logger.Println("Archiving events to ClickHouse")
		return chstore.NewDexEventStore(conn), func() {
			if err := conn.Close(); err != nil {
				logger.Printf("Closing clickhouse: %v", err)
			}
		}, nil

	default:
		return nil, func() {}, nil
	}
}
