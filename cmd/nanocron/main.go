package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ThirdLetterC/nanocron/internal/config"
	"github.com/ThirdLetterC/nanocron/internal/cron"
	"github.com/ThirdLetterC/nanocron/internal/daemon"
	"github.com/ThirdLetterC/nanocron/internal/logfields"
	"github.com/ThirdLetterC/nanocron/internal/metrics"
)

// Set at build time with: -ldflags "-X main.version=1.0.0-rc1"
var version = "dev"

// Root CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" default:"nanocron.yaml" env:"NANOCRON_CONFIG" help:"Configuration file path"`
	Verbose bool             `short:"v" env:"NANOCRON_VERBOSE" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Validate ValidateCmd `cmd:"" help:"Check schedule expressions for parse errors"`
	Next     NextCmd     `cmd:"" help:"Print upcoming trigger instants for an expression"`
	Daemon   DaemonCmd   `cmd:"" help:"Run the scheduler daemon"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Expressions []string `arg:"" name:"expression" help:"7-field schedule expressions (nanosecond second minute hour day-of-month month day-of-week)"`
}

func (v *ValidateCmd) Run() error {
	registry := cron.New()
	defer registry.Destroy()
	failed := 0
	for _, expr := range v.Expressions {
		_, err := registry.Add(expr, func(cron.Instant, any) {}, nil)
		if err != nil {
			failed++
			fmt.Printf("FAIL  %q: %v\n", expr, err)
			continue
		}
		fmt.Printf("OK    %q\n", expr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions invalid", failed, len(v.Expressions))
	}
	return nil
}

// NextCmd implements the 'next' command.
type NextCmd struct {
	Expression string `arg:"" help:"7-field schedule expression"`
	Count      int    `short:"n" default:"5" help:"Number of trigger instants to print"`
	From       string `help:"Reference time (RFC3339 or RFC3339 with nanoseconds); defaults to now"`
	Offset     int    `help:"UTC offset in minutes applied to calendar matching" default:"0"`
}

func (n *NextCmd) Run() error {
	after := cron.InstantFromTime(time.Now())
	if n.From != "" {
		t, err := time.Parse(time.RFC3339Nano, n.From)
		if err != nil {
			return fmt.Errorf("parsing --from: %w", err)
		}
		after = cron.InstantFromTime(t)
	}

	registry := cron.New()
	defer registry.Destroy()
	if err := registry.SetOffset(n.Offset); err != nil {
		return err
	}
	if _, err := registry.Add(n.Expression, func(cron.Instant, any) {}, nil); err != nil {
		return err
	}

	for i := 0; i < n.Count; i++ {
		next, ok := registry.NextTrigger(after)
		if !ok {
			if i == 0 {
				return fmt.Errorf("no trigger within the search horizon")
			}
			break
		}
		fmt.Println(next.Time().Format(time.RFC3339Nano))
		after = next
	}
	return nil
}

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(cli *CLI) error {
	// Optional .env next to the working directory; absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env", logfields.Error(err))
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promReg := prom.NewRegistry()
	recorder := metrics.NewRecorder(promReg)

	var emitter *daemon.EventEmitter
	if cfg.Events.Enabled {
		emitter, err = daemon.NewEventEmitter(&cfg.Events)
		if err != nil {
			return err
		}
		defer emitter.Close()
	}

	runner, err := daemon.NewRunner(cfg, clockwork.NewRealClock(), recorder, emitter)
	if err != nil {
		return err
	}
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	watcher, err := daemon.NewConfigWatcher(cli.Config, func() {
		reloaded, err := config.Load(cli.Config)
		if err != nil {
			recorder.IncReload("failure")
			slog.Error("Config reload failed", logfields.Path(cli.Config), logfields.Error(err))
			return
		}
		if err := runner.Reload(reloaded.Scheduler.Schedules); err != nil {
			recorder.IncReload("failure")
			slog.Error("Applying reloaded schedules failed", logfields.Error(err))
			return
		}
		recorder.IncReload("success")
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: metrics.HTTPHandler(promReg)}
		go func() {
			slog.Info("Serving metrics", logfields.Listen(cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Daemon started", logfields.Count(len(cfg.Scheduler.Schedules)))
	<-ctx.Done()
	slog.Info("Shutting down")
	return nil
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("nanocron"),
		kong.Description("Nanosecond-precision cron scheduler"),
		kong.Vars{"version": version},
	)
	if err := kctx.Run(cli); err != nil {
		kctx.FatalIfErrorf(err)
	}
}
