package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ashstone-io/testpool/adapter"
	redisadapter "github.com/ashstone-io/testpool/adapter/redis"
	"github.com/ashstone-io/testpool/adapter/webhook"
	tpconfig "github.com/ashstone-io/testpool/cli/config"
	"github.com/ashstone-io/testpool/cli/tui"
	"github.com/ashstone-io/testpool/discover"
	"github.com/ashstone-io/testpool/executor"
	"github.com/ashstone-io/testpool/lode"
	"github.com/ashstone-io/testpool/log"
	"github.com/ashstone-io/testpool/metrics"
	"github.com/ashstone-io/testpool/report"
	"github.com/ashstone-io/testpool/store"
)

// Exit codes. Individual test failures never change the exit code;
// only fatal configuration, discovery, or compile failures do.
const (
	exitSuccess = 0
	exitFatal   = 1
)

// RunCommand returns the run command, the only command that executes
// work. It has no required flags: every option falls back to a config
// file default, then a built-in default.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Discover executables and run their tests under a process pool",
		Flags:  RunFlags(),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	started := time.Now()
	logger := log.New()

	cfg := resolveConfig(c)
	if path := c.String("config"); path != "" {
		if _, err := tpconfig.Load(path); err != nil {
			return fatal(cfg, fmt.Errorf("config load failed: %w", err))
		}
	}

	binTarget := cfg.Target.BinTarget
	if binTarget == "" {
		binTarget = "."
	}

	work, err := discover.Discover(binTarget, cfg.Target.ConfigPath)
	if err != nil {
		return fatal(cfg, fmt.Errorf("discovery failed: %w", err))
	}

	mtr := metrics.NewCollector()
	h := store.New(logger)

	execCfg := executor.Config{
		MaxChildSpawn:  orDefault(cfg.Process.MaxChildSpawn, 4),
		WorkerCount:    orDefault(cfg.Process.WorkerCount, 2),
		ReapInterval:   cfg.Process.ReapInterval.Duration,
		DispatchBuffer: 256,
	}

	e := executor.New(execCfg, logger, mtr)

	var progress *tui.Model
	if c.Bool("tui") {
		progress = tui.New(len(work), mtr)
		go progress.Run()
	}

	compiled, err := e.Run(work, h)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return fatal(cfg, fmt.Errorf("compile failed: %w", err))
	}

	snap := mtr.Snapshot()
	rep := report.Build(compiled, &snap, started, time.Now(), exitSuccess)

	reportOut := cfg.Path.ReportOut
	if reportOut == "" {
		reportOut = "-"
	}
	sink := report.LocalSink{Path: reportOut}
	if err := sink.Write(rep); err != nil {
		logger.Warnw("failed to write report", "error", err)
	}

	if archive, err := buildStorageSink(cfg, mtr, started); err != nil {
		logger.Warnw("archival storage sink unavailable", "error", err)
	} else if archive != nil {
		defer archive.Close()
		if err := archive.Write(rep); err != nil {
			logger.Warnw("failed to archive report", "error", err)
		}
	}

	notifyRunCompleted(c, cfg, logger, rep)

	return nil
}

// resolveConfig loads a config file if --config was given, otherwise
// returns an empty Config whose fields are all filled from flags. A
// config file that fails to load yields the empty Config here;
// runAction reports that failure as fatal.
func resolveConfig(c *cli.Context) *tpconfig.Config {
	var cfg *tpconfig.Config
	if path := c.String("config"); path != "" {
		loaded, err := tpconfig.Load(path)
		if err == nil {
			cfg = loaded
		}
	}
	if cfg == nil {
		cfg = &tpconfig.Config{}
	}

	if v := c.String("bin-target"); v != "" {
		cfg.Target.BinTarget = v
	}
	if v := c.String("config-path"); v != "" {
		cfg.Target.ConfigPath = v
	}
	if v := c.String("report-out"); v != "" {
		cfg.Path.ReportOut = v
	}
	if v := c.String("error-out"); v != "" {
		cfg.Path.ErrorOut = v
	}
	if c.IsSet("max-child-spawn") {
		cfg.Process.MaxChildSpawn = c.Int("max-child-spawn")
	}
	if c.IsSet("worker-count") {
		cfg.Process.WorkerCount = c.Int("worker-count")
	}
	return cfg
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// fatal writes a diagnostic to the configured error sink and returns
// an ExitCoder so main's ExitErrHandler preserves the nonzero code.
func fatal(cfg *tpconfig.Config, err error) error {
	errOut := cfg.Path.ErrorOut
	if errOut == "" {
		errOut = "-"
	}
	msg := err.Error() + "\n"
	if errOut == "-" {
		os.Stderr.WriteString(msg)
	} else {
		_ = os.WriteFile(errOut, []byte(msg), 0o644)
	}
	return cli.Exit(err.Error(), exitFatal)
}

// notifyRunCompleted publishes a run-completion event to an adapter if
// one is configured. Failures are logged, never fatal: notification is
// best-effort and must not affect the run's exit code.
func notifyRunCompleted(c *cli.Context, cfg *tpconfig.Config, logger *zap.SugaredLogger, rep *report.Report) {
	a, err := buildAdapter(cfg)
	if err != nil {
		logger.Warnw("run-completion adapter unavailable", "error", err)
		return
	}
	if a == nil {
		return
	}
	defer a.Close()

	outcome := "success"
	if rep.FailCount > 0 {
		outcome = "failures"
	}

	ev := &adapter.RunCompletedEvent{
		EventType:    "run_completed",
		RunID:        rep.RunID,
		Outcome:      outcome,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ProgramCount: rep.ProgramCount,
		TestCount:    rep.TestCount,
		FailedCount:  rep.FailCount,
		DurationMs:   rep.DurationMs,
	}

	if err := a.Publish(c.Context, ev); err != nil {
		logger.Warnw("run-completion notification failed", "error", err)
	}
}

func buildAdapter(cfg *tpconfig.Config) (adapter.Adapter, error) {
	switch cfg.Adapter.Type {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: derefOrDefault(cfg.Adapter.Retries, webhook.DefaultRetries),
		})
	case "redis":
		return redisadapter.New(redisadapter.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: derefOrDefault(cfg.Adapter.Retries, redisadapter.DefaultRetries),
		})
	default:
		return nil, nil
	}
}

// buildStorageSink constructs the optional lode-backed archival sink
// configured under storage. Returns a nil sink and nil error when
// archival is disabled (the common case).
func buildStorageSink(cfg *tpconfig.Config, mtr *metrics.Collector, started time.Time) (*lode.InstrumentedSink, error) {
	sc := cfg.Storage
	if sc.Type == "" {
		return nil, nil
	}

	lodeCfg := lode.Config{
		Dataset: sc.Dataset,
		Day:     lode.DeriveDay(started),
	}

	var client lode.Client
	var err error
	switch sc.Type {
	case "fs":
		if sc.Root == "" {
			return nil, fmt.Errorf("storage.root is required for type=fs")
		}
		client, err = lode.NewLodeClient(lodeCfg, sc.Root)
	case "s3":
		bucket, prefix := lode.ParseS3Path(sc.S3Path)
		client, err = lode.NewLodeS3Client(lodeCfg, lode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       sc.Region,
			Endpoint:     sc.Endpoint,
			UsePathStyle: sc.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage.type %q", sc.Type)
	}
	if err != nil {
		return nil, err
	}

	sink := lode.NewSink(lodeCfg, client)
	return lode.NewInstrumentedSink(sink, mtr), nil
}

func derefOrDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
