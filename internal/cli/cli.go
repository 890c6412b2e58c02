package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/econ-calendar/internal/config"
	"github.com/pfrederiksen/econ-calendar/internal/logger"
	"github.com/pfrederiksen/econ-calendar/internal/metrics"
	"github.com/pfrederiksen/econ-calendar/internal/pipeline"
	"github.com/pfrederiksen/econ-calendar/internal/scraper"
	"github.com/pfrederiksen/econ-calendar/internal/session"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
	ExitPartial   = 3
)

// exitError carries a non-zero exit status for an outcome that is not a failure to report.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Runner executes one calendar retrieval.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Report
}

// deps are the pieces commands need from the outside world.
type deps struct {
	now       func() time.Time
	newRunner func(cfg *config.Config, m *metrics.Manager, log *logger.Logger) Runner
}

func defaultDeps() deps {
	return deps{
		now:       time.Now,
		newRunner: newPipelineRunner,
	}
}

// newPipelineRunner wires the browser-backed session provider and HTTP fetcher into an Orchestrator.
func newPipelineRunner(cfg *config.Config, m *metrics.Manager, log *logger.Logger) Runner {
	browser := session.NewChromeBrowser(cfg.Headless)
	browser.UserAgent = cfg.UserAgent

	provider := session.New(browser,
		session.WithTTL(cfg.SessionTTL),
		session.WithTargetURL(cfg.CalendarURL),
		session.WithRecorder(m),
	)
	fetcher := scraper.New(
		scraper.WithEndpoint(cfg.EndpointURL),
		scraper.WithTimeout(cfg.RequestTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
	)
	mode, _ := scraper.ParseFallbackMode(cfg.FallbackMode)

	return pipeline.New(provider, fetcher,
		pipeline.WithDelay(cfg.DelayMin, cfg.DelayMax),
		pipeline.WithRetry(cfg.MaxAttempts, cfg.BackoffInitial, cfg.BackoffMax),
		pipeline.WithRowCapHint(cfg.RowCapHint),
		pipeline.WithFallbackMode(mode),
		pipeline.WithMetrics(m),
		pipeline.WithLogger(log),
	)
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps())
}

func newRootCmd(d deps) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "econ-calendar",
		Short: "Retrieve the investing.com economic calendar",
		Long: `A CLI tool to retrieve economic calendar events from investing.com.
Splits the requested range into day-sized requests, retries blocked or failed
requests, and merges the results into one deduplicated list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file (default $ECONCAL_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.AddCommand(
		newScrapeCmd(d, flags),
		newCountriesCmd(),
		newTimezonesCmd(),
		newCategoriesCmd(),
		newShowCmd(flags),
	)

	return cmd
}

// loadConfig reads configuration and applies the shared flags.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the package default.
func newLogger(cfg *config.Config, w io.Writer) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(level, w)
	logger.SetDefault(log)
	return log, nil
}

func exitCode(err error, w io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitError
}

// Execute runs the CLI and returns the process exit code.
// SIGINT and SIGTERM cancel a running scrape; events merged so far are still written.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	return exitCode(cmd.ExecuteContext(ctx), cmd.ErrOrStderr())
}
