package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/umputun/jobimport/pkg/config"
	"github.com/umputun/jobimport/pkg/domain"
	"github.com/umputun/jobimport/pkg/feed"
	"github.com/umputun/jobimport/pkg/importer"
	"github.com/umputun/jobimport/pkg/metrics"
	"github.com/umputun/jobimport/pkg/posting"
	"github.com/umputun/jobimport/pkg/queue"
	"github.com/umputun/jobimport/pkg/repository"
	"github.com/umputun/jobimport/pkg/scheduler"
	"github.com/umputun/jobimport/pkg/worker"
	"github.com/umputun/jobimport/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Check  bool   `long:"check" description:"fetch configured feeds, report item counts and exit"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)
	log.Printf("[INFO] starting jobimport version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()
	log.Print("[INFO] shutdown complete")
}

// run wires all components, blocks until ctx is canceled or the server fails, then shuts down in order:
// scheduler, server, worker pool, queue and store
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLog(opts.Debug, opts.NoColor, secrets(cfg)...)

	// fetcher is shared by check mode and workers
	registry := feedSources(cfg.Feeds)
	fetcher := feed.NewFetcher(feed.FetcherParams{
		Timeout:     cfg.Fetch.Timeout,
		Retries:     cfg.Fetch.Retries,
		Backoff:     cfg.Fetch.Backoff,
		UserAgent:   cfg.Fetch.UserAgent,
		Concurrency: cfg.Worker.Concurrency,
	})
	if opts.Check {
		return checkFeeds(ctx, fetcher, registry)
	}

	// open store
	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] close store: %v", err)
		}
	}()

	// connect queue
	q, err := queue.New(ctx, queue.Config{
		URL:           cfg.Redis.URL,
		Name:          cfg.Queue.Name,
		Attempts:      cfg.Queue.Attempts,
		Backoff:       cfg.Queue.Backoff,
		KeepCompleted: int64(cfg.Queue.KeepCompleted),
		KeepFailed:    int64(cfg.Queue.KeepFailed),
		StallInterval: cfg.Queue.StallInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to connect queue: %w", err)
	}
	defer func() {
		if err := q.Close(); err != nil {
			log.Printf("[WARN] close queue: %v", err)
		}
	}()

	// metrics registry with runtime collectors and live queue depth
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewQueueCollector(q))
	m := metrics.New(reg)

	// seed feed sources before anything reads them
	sched := scheduler.New(scheduler.Params{
		Feeds:      repos.Feed,
		Queue:      q,
		Metrics:    m,
		Cron:       cfg.Schedule.Cron,
		Registry:   registry,
		RunOnStart: cfg.Schedule.RunOnStart,
	})
	if err = sched.SeedFeeds(ctx); err != nil {
		return err
	}

	// workers outlive ctx, Stop drains them
	proc := worker.NewProcessor(worker.Params{
		Fetcher:    fetcher,
		Normalizer: posting.NewNormalizer(),
		Importer: importer.New(importer.Params{
			Jobs:            repos.Job,
			Runs:            repos.Run,
			BatchSize:       cfg.Import.BatchSize,
			CheckpointEvery: cfg.Import.CheckpointEvery,
		}),
		Runs:             repos.Run,
		Feeds:            repos.Feed,
		Metrics:          m,
		MaxFailedDetails: cfg.Import.MaxFailedDetails,
	})
	pool := worker.NewPool(q, proc.Handle, cfg.Worker.Concurrency, m)
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Stop()

	if err = sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// ops server gets its own context, canceled after the scheduler stops
	srv := server.New(server.Params{
		Config:  cfg,
		Runs:    repos.Run,
		Queue:   q,
		Sweeper: sched,
		Metrics: metrics.Handler(reg),
		Version: revision,
		Debug:   opts.Debug,
	})
	srvCtx, srvCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer srvCancel()
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(srvCtx) }()

	var runErr error
	select {
	case <-ctx.Done():
		sched.Stop()
		srvCancel()
		runErr = <-srvErr
	case runErr = <-srvErr:
		sched.Stop()
	}
	// worker pool, queue and store are released by deferred calls in reverse order
	return runErr
}

// checkFeeds fetches every feed once and logs item counts, returns error if any feed failed
func checkFeeds(ctx context.Context, fetcher *feed.Fetcher, feeds []domain.FeedSource) error {
	if len(feeds) == 0 {
		feeds = scheduler.DefaultFeeds
	}
	urls := make([]string, 0, len(feeds))
	for _, f := range feeds {
		urls = append(urls, f.URL)
	}

	failed := 0
	for _, res := range fetcher.FetchAll(ctx, urls) {
		if !res.Success {
			failed++
			log.Printf("[WARN] %s: failed after %d attempts, %s", res.URL, res.Attempts, res.Error)
			continue
		}
		log.Printf("[INFO] %s: %d items", res.URL, res.TotalFetched)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d feeds failed", failed, len(urls))
	}
	return nil
}

// feedSources maps configured feeds to seeded sources, nil if none configured
func feedSources(feeds []config.FeedConfig) []domain.FeedSource {
	if len(feeds) == 0 {
		return nil
	}
	res := make([]domain.FeedSource, 0, len(feeds))
	for _, f := range feeds {
		res = append(res, domain.FeedSource{URL: f.URL, Name: f.Name, Category: f.Category, JobType: f.JobType,
			Region: f.Region, Active: !f.Disabled})
	}
	return res
}

// secrets returns passwords embedded in connection urls, masked in logs
func secrets(cfg *config.Config) []string {
	var res []string
	for _, dsn := range []string{cfg.Database.DSN, cfg.Redis.URL} {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			continue
		}
		if pass, ok := u.User.Password(); ok && pass != "" {
			res = append(res, pass)
		}
	}
	return res
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
