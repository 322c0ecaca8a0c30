package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sreeprasad/luma-notifier/internal/config"
	"github.com/sreeprasad/luma-notifier/internal/ics"
	appLog "github.com/sreeprasad/luma-notifier/internal/log"
	"github.com/sreeprasad/luma-notifier/internal/messenger"
	"github.com/sreeprasad/luma-notifier/internal/pipeline"
	"github.com/sreeprasad/luma-notifier/internal/state"
)

type flagConfig struct {
	configPath string
	envPath    string
	dryRun     bool
	daemon     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath, flags.envPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err)
		return 1
	}

	if conf.LogFile != "" {
		if err := appLog.SetRunLog(conf.LogFile); err != nil {
			appLog.Error("failed to open run log", err, "log_file", conf.LogFile)
			return 1
		}
		defer appLog.Close()
	}

	appLog.Info("lumanotify starting",
		"feed", ics.RedactURL(conf.FeedURL),
		"organizer_domain", conf.OrganizerDomain,
		"lookahead_days", conf.LookaheadDays,
		"state_file", conf.StateFile,
		"dry_run", flags.dryRun,
		"daemon", flags.daemon,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	var sender messenger.Messenger
	if flags.dryRun {
		sender = messenger.NewConsoleSender()
	} else {
		sender = messenger.NewIMessageSender(0)
	}

	if flags.daemon {
		return runDaemon(ctx, conf, sender, flags.dryRun)
	}
	return runOnce(ctx, conf, sender, flags.dryRun)
}

// runOnce executes a single pipeline run. A completed run exits 0 even
// with zero new entries or per-entry dispatch failures; only fetch,
// document-parse and persist failures are fatal.
func runOnce(ctx context.Context, conf *config.Config, sender messenger.Messenger, dryRun bool) int {
	store, err := state.Load(conf.StateFile)
	if err != nil {
		appLog.Warn("state file unreadable, starting with empty notified-set", "state_file", conf.StateFile, "err", err)
	}

	deps := pipeline.Deps{
		Fetcher:            ics.NewClient(conf.FeedURL, time.Duration(conf.FetchTimeoutSeconds)*time.Second),
		Messenger:          sender,
		Store:              store,
		DestinationContact: conf.DestinationContact,
		LookaheadDays:      conf.LookaheadDays,
		OrganizerDomain:    conf.OrganizerDomain,
		DryRun:             dryRun,
	}

	rep, err := pipeline.Run(ctx, deps)
	if err != nil {
		appLog.Error("run aborted", err)
		return 1
	}

	appLog.Info("run completed",
		"found", rep.Found,
		"relevant", rep.Relevant,
		"new", rep.New,
		"sent", rep.Sent,
		"failed", rep.Failed,
	)
	return 0
}

// runDaemon stays resident and triggers a run on the configured cron
// schedule, plus one immediately at startup. Each run loads fresh state,
// so overlapping external invocations stay safe too.
func runDaemon(ctx context.Context, conf *config.Config, sender messenger.Messenger, dryRun bool) int {
	runOnce(ctx, conf, sender, dryRun)

	c := cron.New()
	_, err := c.AddFunc(conf.Schedule, func() {
		runOnce(ctx, conf, sender, dryRun)
	})
	if err != nil {
		appLog.Error("invalid schedule", err, "schedule", conf.Schedule)
		return 1
	}

	appLog.Info("daemon scheduled", "schedule", conf.Schedule)
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("lumanotify exiting")
	return 0
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to optional YAML config file")
	flag.StringVar(&cfg.envPath, "env", ".env", "Path to .env file (missing file is fine)")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Print messages instead of sending them")
	flag.BoolVar(&cfg.daemon, "daemon", false, "Stay resident and run on the configured cron schedule")

	flag.Parse()

	return cfg
}
