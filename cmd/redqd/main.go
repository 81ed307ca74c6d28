// Command redqd hosts the operational side of redq: promotion of deferred
// items, the admin HTTP API with Prometheus metrics, and dead-letter forwarding.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/code19m/errx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rise-and-shine/redq/admin"
	"github.com/rise-and-shine/redq/cfgloader"
	"github.com/rise-and-shine/redq/hasher"
	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/http/server/middleware"
	"github.com/rise-and-shine/redq/kafka"
	"github.com/rise-and-shine/redq/manager"
	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/metrics"
	"github.com/rise-and-shine/redq/observability/alert"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/observability/tracing"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/rediswr"
	"github.com/rise-and-shine/redq/scheduler"
	"github.com/rise-and-shine/redq/token"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg := cfgloader.MustLoad[Config]()

	meta.SetServiceInfo(cfg.ServiceName, cfg.ServiceVersion)
	if err := logger.SetGlobal(cfg.Logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logger.Errorx(err)
		os.Exit(1) //nolint:gocritic // deferred sync is best effort
	}
}

func run(ctx context.Context, cfg Config) error {
	log := logger.Named("redqd")

	shutdownTracer, err := tracing.InitGlobalTracer(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(); err != nil {
			log.Warnx(err)
		}
	}()

	client, err := rediswr.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err = alert.SetGlobal(cfg.Alert, client); err != nil {
		return errx.Wrap(err)
	}

	queueOpts, closeHooks, err := errorHooks(cfg)
	if err != nil {
		return err
	}
	defer closeHooks()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := rediswr.NewStore(client, cfg.Redis.Namespace)
	mgr := manager.New(store, cfg.Queue, manager.WithQueueOptions(queueOpts...))

	sched, err := scheduler.New(store, mgr.Queue,
		scheduler.WithInterval(cfg.Scheduler.Interval),
		scheduler.WithBatchSize(cfg.Scheduler.BatchSize),
		scheduler.WithDiscovery(mgr.QueueNames),
	)
	if err != nil {
		return err
	}

	for _, name := range cfg.Queues {
		if _, err = mgr.Queue(ctx, name); err != nil {
			return err
		}
	}
	names, err := mgr.QueueNames(ctx)
	if err != nil {
		return err
	}
	sched.Track(names...)

	srv := server.NewHTTPServer(cfg.Admin,
		middleware.Defaults(cfg.Admin, logger.Named("admin"), cfg.ServiceName, cfg.ServiceVersion))
	srv.RegisterRouter(admin.New(mgr,
		admin.WithMetrics(m, reg),
		admin.WithTokenHash(cfg.AdminTokenHash),
	).Register)

	errCh := make(chan error, 2)
	go func() { errCh <- sched.Start(ctx) }()
	go func() { errCh <- srv.Start() }()

	log.With("addr", cfg.Admin.Address(), "queues", names).Info("[redqd]: started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			log.Errorx(errx.Wrap(err))
		}
	}

	log.Info("[redqd]: shutting down")
	if err := srv.Stop(); err != nil {
		log.Warnx(errx.Wrap(err))
	}
	if err := sched.Stop(); err != nil {
		log.Warnx(err)
	}

	return nil
}

// printToken generates an admin API token and prints it with the hash to put
// into admin_token_hash.
func printToken() error {
	tok, err := token.NewOpaqueToken()
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(tok)
	if err != nil {
		return err
	}

	fmt.Printf("token: %s\nadmin_token_hash: %s\n", tok, hash) //nolint:forbidigo // command output
	return nil
}

// errorHooks builds the dead-letter hooks enabled by cfg and a function
// releasing their resources.
func errorHooks(cfg Config) ([]queue.Option, func(), error) {
	var (
		opts    []queue.Option
		closers []func()
	)

	if cfg.AlertOnDeadLetter {
		opts = append(opts, queue.WithErrorHook(alert.DeadLetterHook()))
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, queue.WithErrorHook(kafka.DeadLetterHook(producer)))
		closers = append(closers, func() {
			if err := producer.Close(); err != nil {
				logger.Named("redqd").Warnx(err)
			}
		})
	}

	return opts, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
