package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/econ-calendar/internal/config"
	"github.com/pfrederiksen/econ-calendar/internal/event"
	"github.com/pfrederiksen/econ-calendar/internal/filter"
	"github.com/pfrederiksen/econ-calendar/internal/logger"
	"github.com/pfrederiksen/econ-calendar/internal/metrics"
	"github.com/pfrederiksen/econ-calendar/internal/partition"
	"github.com/pfrederiksen/econ-calendar/internal/pipeline"
	"github.com/pfrederiksen/econ-calendar/internal/registry"
	"github.com/pfrederiksen/econ-calendar/internal/storage"
	"github.com/pfrederiksen/econ-calendar/internal/telemetry"
)

const serviceName = "econ-calendar"

type scrapeOptions struct {
	from       string
	to         string
	dateRange  string
	countries  string
	categories string
	importance string
	timezone   string

	format        string
	sort          string
	output        string
	appendFile    bool
	impacts       string
	keywords      []string
	currencies    string
	showFrom      string
	showTo        string
	hidePast      bool
	daysAhead     int
	noHolidays    bool
	splitHolidays bool
	newOnly       bool

	// config overrides, applied only when the flag is set
	daysPerChunk int
	dataDir      string
	metricsFile  string
	fallback     string
	headless     bool
	otlpEndpoint string
}

func newScrapeCmd(d deps, root *rootFlags) *cobra.Command {
	opts := &scrapeOptions{}
	defaults := config.New()

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Retrieve calendar events for a date range",
		Long: `Retrieve calendar events for a date range.

Exit codes: 0 success, 1 error, 2 new events found (--new-only), 3 some days
could not be retrieved or the run was interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, d, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "First day, YYYY-MM-DD (default today)")
	f.StringVar(&opts.to, "to", "", "Last day, YYYY-MM-DD (default today+30)")
	f.StringVar(&opts.dateRange, "range", "", "Human date range instead of --from/--to, e.g. 'Dec 2-20'")
	f.StringVar(&opts.countries, "countries", "", "Comma-separated country names or ids (default all)")
	f.StringVar(&opts.categories, "categories", "", "Comma-separated category ids or names (default all)")
	f.StringVar(&opts.importance, "importance", "", "Comma-separated importance levels 1-3 or low,medium,high (default all)")
	f.StringVar(&opts.timezone, "timezone", "", "Timezone id or name, e.g. 55 or 'GMT +1:00' (default UTC)")

	f.StringVar(&opts.format, "format", "text", "Output format: text, json, yaml, csv, or ics")
	f.StringVar(&opts.sort, "sort", "time", "Sort order: time, country, or impact")
	f.StringVarP(&opts.output, "output", "o", "", "Write output to a file instead of stdout")
	f.BoolVar(&opts.appendFile, "append", false, "Merge into the existing --output CSV file, keeping a timestamped backup")
	f.StringVar(&opts.impacts, "impact", "", "Only show these impacts, e.g. high,medium")
	f.StringSliceVar(&opts.keywords, "keyword", nil, "Only show events whose name contains a keyword (repeatable)")
	f.StringVar(&opts.currencies, "currencies", "", "Only show events for these currency codes or country names, e.g. USD,EUR")
	f.StringVar(&opts.showFrom, "show-from", "", "Only show events on or after this day, YYYY-MM-DD")
	f.StringVar(&opts.showTo, "show-to", "", "Only show events on or before this day, YYYY-MM-DD")
	f.BoolVar(&opts.hidePast, "hide-past", false, "Drop events that have already happened")
	f.IntVar(&opts.daysAhead, "days-ahead", 0, "Only show events within this many days from now (0 = no limit)")
	f.BoolVar(&opts.noHolidays, "no-holidays", false, "Drop holiday entries")
	f.BoolVar(&opts.splitHolidays, "split-holidays", false, "List holidays separately from events")
	f.BoolVar(&opts.newOnly, "new-only", false, "Only report events not seen in the previous run")

	f.IntVar(&opts.daysPerChunk, "days-per-chunk", defaults.DaysPerChunk, "Days requested per call")
	f.StringVar(&opts.dataDir, "data-dir", defaults.DataDir, "Data directory for snapshots")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	f.StringVar(&opts.fallback, "fallback", defaults.FallbackMode, "Holiday extractor mode: empty or always")
	f.BoolVar(&opts.headless, "headless", defaults.Headless, "Run the browser headless")
	f.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP endpoint for traces")

	return cmd
}

// applyOverrides copies explicitly set flags onto cfg.
func (o *scrapeOptions) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("days-per-chunk") {
		cfg.DaysPerChunk = o.daysPerChunk
	}
	if f.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if f.Changed("fallback") {
		cfg.FallbackMode = o.fallback
	}
	if f.Changed("headless") {
		cfg.Headless = o.headless
	}
	if f.Changed("otlp-endpoint") {
		cfg.OTLPEndpoint = o.otlpEndpoint
	}
}

func runScrape(cmd *cobra.Command, d deps, root *rootFlags, opts *scrapeOptions) error {
	format, err := ParseFormat(opts.format)
	if err != nil {
		return err
	}
	sortOrder, err := ParseSortOrder(opts.sort)
	if err != nil {
		return err
	}
	if opts.appendFile && (format != FormatCSV || opts.output == "") {
		return fmt.Errorf("--append requires --format csv and --output")
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	opts.applyOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	req, err := opts.request(cfg, d.now())
	if err != nil {
		return err
	}
	post, err := opts.postFilter(d.now())
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log.Debug("Output filter", logger.Fields{"filter": post.String()})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("Trace exporter shutdown failed", logger.Fields{"error": err.Error()})
		}
	}()

	m := metrics.NewManager()
	report := d.newRunner(cfg, m, log).Run(ctx, req)
	checkedAt := d.now().UTC()

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error("Failed to write metrics file", logger.Fields{"path": cfg.MetricsFile}, err)
		}
	}

	result := newOutputResult(report, checkedAt)
	result.NewOnly = opts.newOnly
	if offset, ok := registry.TimezoneOffset(req.TimezoneID); ok {
		result.TimezoneOffset = offset
	}

	events := report.Events
	if opts.newOnly && report.Success {
		diff, err := diffAgainstSnapshot(cfg, req, report, log)
		if err != nil {
			return err
		}
		events = diff.NewEvents
		result.Changes = diff.Changes
	}

	events = post.Apply(events)
	sortEvents(events, sortOrder)
	result.SetEvents(events, opts.splitHolidays)

	if opts.appendFile {
		stats, err := appendCSV(opts.output, result.allEvents(), d.now())
		if err != nil {
			return fmt.Errorf("appending to %s: %w", opts.output, err)
		}
		log.Info("CSV file updated", logger.Fields{
			"path":     opts.output,
			"existing": stats.Existing,
			"replaced": stats.Replaced,
			"dropped":  stats.Dropped,
			"rows":     stats.Written,
			"backup":   stats.Backup,
		})
	} else if err := writeResult(cmd.OutOrStdout(), opts.output, result, format, root.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	switch {
	case !report.Success:
		return &exitError{code: ExitError}
	case opts.newOnly && result.TotalEvents+result.TotalHolidays > 0:
		return &exitError{code: ExitNewEvents}
	case report.Partial() || report.Cancelled:
		return &exitError{code: ExitPartial}
	}
	return nil
}

// diffAgainstSnapshot compares the run with the stored snapshot and merges the
// run's events into it. Cancelled or partial runs leave the snapshot untouched.
func diffAgainstSnapshot(cfg *config.Config, req pipeline.Request, report pipeline.Report, log *logger.Logger) (*event.DiffResult, error) {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	scope := storage.ScopeFor(req.Countries, len(registry.AllCountryCodes()))
	previous, err := store.LoadSnapshot(scope)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	diff := event.Diff(previous, report.Events)

	if report.Cancelled || report.Partial() {
		log.Warn("Run incomplete; snapshot not updated", logger.Fields{
			"scope":          scope,
			"cancelled":      report.Cancelled,
			"skipped_chunks": len(report.SkippedChunks),
		})
		return diff, nil
	}
	if err := store.UpdateSnapshot(report.Events, report.DateRange.From, report.DateRange.To, scope); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	log.Debug("Snapshot updated", logger.Fields{
		"scope":      scope,
		"events":     len(report.Events),
		"new_events": len(diff.NewEvents),
		"changes":    len(diff.Changes),
	})
	return diff, nil
}

func writeResult(stdout io.Writer, path string, result *OutputResult, format OutputFormat, verbose bool) error {
	if path == "" {
		return WriteOutput(stdout, result, format, verbose)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteOutput(f, result, format, verbose); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// request builds the pipeline request from flags, falling back to configuration.
func (o *scrapeOptions) request(cfg *config.Config, now time.Time) (pipeline.Request, error) {
	req := pipeline.Request{
		DateFrom:     o.from,
		DateTo:       o.to,
		Countries:    cfg.Countries,
		Categories:   cfg.Categories,
		Importance:   cfg.Importance,
		TimezoneID:   cfg.TimezoneID,
		TimeFilter:   cfg.TimeFilter,
		DaysPerChunk: cfg.DaysPerChunk,
	}

	if o.dateRange != "" {
		if o.from != "" || o.to != "" {
			return req, fmt.Errorf("--range cannot be combined with --from/--to")
		}
		from, to, err := filter.ParseDateRangeAt(o.dateRange, now)
		if err != nil {
			return req, err
		}
		req.DateFrom = from.Format(partition.DateLayout)
		req.DateTo = to.Format(partition.DateLayout)
	}

	var err error
	if o.countries != "" {
		if req.Countries, err = parseCountries(o.countries); err != nil {
			return req, err
		}
	}
	if o.categories != "" {
		if req.Categories, err = parseCategories(o.categories); err != nil {
			return req, err
		}
	}
	if o.importance != "" {
		if req.Importance, err = parseImportance(o.importance); err != nil {
			return req, err
		}
	}
	if o.timezone != "" {
		if req.TimezoneID, err = parseTimezone(o.timezone); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (o *scrapeOptions) postFilter(now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()
	impacts, err := filter.ParseImpacts(o.impacts)
	if err != nil {
		return nil, err
	}
	if len(impacts) > 0 {
		f.Impacts = impacts
	}
	for _, kw := range o.keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			f.Keywords = append(f.Keywords, kw)
		}
	}
	f.Countries = splitList(o.currencies)
	if o.showFrom != "" {
		from, err := time.Parse(partition.DateLayout, o.showFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid --show-from %q: expected YYYY-MM-DD", o.showFrom)
		}
		f.DateFrom = &from
	}
	if o.showTo != "" {
		to, err := time.Parse(partition.DateLayout, o.showTo)
		if err != nil {
			return nil, fmt.Errorf("invalid --show-to %q: expected YYYY-MM-DD", o.showTo)
		}
		f.DateTo = &to
	}
	if o.daysAhead < 0 {
		return nil, fmt.Errorf("--days-ahead must be >= 0, got %d", o.daysAhead)
	}
	f.HidePast = o.hidePast
	f.DaysAhead = o.daysAhead
	f.Now = now
	f.ExcludeHolidays = o.noHolidays
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseCountries accepts site ids, names and aliases.
func parseCountries(s string) ([]int, error) {
	var ids []int
	for _, part := range splitList(s) {
		if id, err := strconv.Atoi(part); err == nil {
			if _, ok := registry.CountryName(id); !ok {
				return nil, fmt.Errorf("unknown country id: %d", id)
			}
			ids = append(ids, id)
			continue
		}
		id, ok := registry.CountryCode(part)
		if !ok {
			return nil, fmt.Errorf("unknown country: %q (see 'econ-calendar countries')", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseCategories accepts category ids such as _inflation or display names.
func parseCategories(s string) ([]string, error) {
	var ids []string
	for _, part := range splitList(s) {
		if _, ok := registry.CategoryName(part); ok {
			ids = append(ids, part)
			continue
		}
		found := false
		for _, cat := range registry.Categories() {
			if strings.EqualFold(cat.Name, part) || strings.EqualFold(cat.ID, "_"+part) {
				ids = append(ids, cat.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown category: %q (see 'econ-calendar categories')", part)
		}
	}
	return ids, nil
}

func parseImportance(s string) ([]int, error) {
	var levels []int
	for _, part := range splitList(s) {
		switch strings.ToLower(part) {
		case "1", "low":
			levels = append(levels, 1)
		case "2", "medium":
			levels = append(levels, 2)
		case "3", "high":
			levels = append(levels, 3)
		default:
			return nil, fmt.Errorf("invalid importance: %q (use 1-3 or low, medium, high)", part)
		}
	}
	return levels, nil
}

func parseTimezone(s string) (int, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		if _, ok := registry.TimezoneName(id); !ok {
			return 0, fmt.Errorf("unknown timezone id: %d", id)
		}
		return id, nil
	}
	id, ok := registry.TimezoneID(s)
	if !ok {
		return 0, fmt.Errorf("unknown timezone: %q (see 'econ-calendar timezones')", s)
	}
	return id, nil
}
