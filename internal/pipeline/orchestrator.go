package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pfrederiksen/econ-calendar/internal/event"
	"github.com/pfrederiksen/econ-calendar/internal/logger"
	"github.com/pfrederiksen/econ-calendar/internal/metrics"
	"github.com/pfrederiksen/econ-calendar/internal/partition"
	"github.com/pfrederiksen/econ-calendar/internal/scraper"
	"github.com/pfrederiksen/econ-calendar/internal/session"
)

var tracer = otel.Tracer("github.com/pfrederiksen/econ-calendar/internal/pipeline")

// SessionProvider hands out session cookies and can discard the cached set.
type SessionProvider interface {
	GetOrRefresh(ctx context.Context) (session.CookieSet, error)
	Invalidate()
}

// Fetcher retrieves the markup for one chunk.
type Fetcher interface {
	Fetch(ctx context.Context, chunk partition.Chunk, cookies session.CookieSet, filters scraper.Filters) (scraper.Fragment, error)
}

// Orchestrator runs retrievals. Runs on one Orchestrator must not overlap.
type Orchestrator struct {
	session SessionProvider
	fetcher Fetcher
	metrics *metrics.Manager
	log     *logger.Logger

	delayMin       time.Duration
	delayMax       time.Duration
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration
	rowCapHint     int
	fallback       scraper.FallbackMode

	now    func() time.Time
	jitter func(n int64) int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelay sets the bounds of the pause between chunk requests.
func WithDelay(minDelay, maxDelay time.Duration) Option {
	return func(o *Orchestrator) {
		if minDelay >= 0 && maxDelay >= minDelay {
			o.delayMin, o.delayMax = minDelay, maxDelay
		}
	}
}

// WithRetry sets the attempt budget and backoff bounds for each chunk.
func WithRetry(maxAttempts int, initial, maxInterval time.Duration) Option {
	return func(o *Orchestrator) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		if initial > 0 {
			o.backoffInitial = initial
		}
		if maxInterval > 0 {
			o.backoffMax = maxInterval
		}
	}
}

// WithRowCapHint sets the row count at which a chunk is reported as possibly truncated.
func WithRowCapHint(rows int) Option {
	return func(o *Orchestrator) {
		o.rowCapHint = rows
	}
}

// WithFallbackMode selects when the holiday extractor runs.
func WithFallbackMode(mode scraper.FallbackMode) Option {
	return func(o *Orchestrator) {
		if mode != "" {
			o.fallback = mode
		}
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger; run and chunk fields are added to it.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates an Orchestrator.
func New(provider SessionProvider, fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:        provider,
		fetcher:        fetcher,
		log:            logger.Default(),
		delayMin:       time.Second,
		delayMax:       3 * time.Second,
		maxAttempts:    3,
		backoffInitial: 2 * time.Second,
		backoffMax:     30 * time.Second,
		rowCapHint:     partition.DefaultRowCapHint,
		fallback:       scraper.FallbackWhenEmpty,
		now:            time.Now,
		jitter:         rand.Int64N,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewManager()
	}
	return o
}

// run carries the mutable state of a single Run call.
type run struct {
	report  Report
	set     *event.Set
	cookies session.CookieSet
	filters scraper.Filters
	log     *logger.Logger
}

// Run retrieves every chunk of req and returns the merged result.
// Cancelling ctx stops the run between chunks; events merged so far are returned.
func (o *Orchestrator) Run(ctx context.Context, req Request) Report {
	started := o.now()
	req = req.withDefaults(started)

	r := &run{
		report: Report{
			RunID:     uuid.NewString(),
			Events:    []*event.Event{},
			DateRange: DateRange{From: req.DateFrom, To: req.DateTo},
		},
		set:     event.NewSet(),
		filters: req.filters(),
	}
	r.log = o.log.With(logger.Fields{"run_id": r.report.RunID})

	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", r.report.RunID),
		attribute.String("range.from", req.DateFrom),
		attribute.String("range.to", req.DateTo),
	))
	defer span.End()

	err := o.execute(ctx, r, req)
	o.finalize(r, err, o.now().Sub(started))

	span.SetAttributes(
		attribute.Int("events.total", r.report.TotalEvents),
		attribute.Int("chunks.processed", r.report.ChunksProcessed),
		attribute.Int("chunks.skipped", len(r.report.SkippedChunks)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r.report
}

func (o *Orchestrator) execute(ctx context.Context, r *run, req Request) error {
	from, to, err := partition.ParseRange(req.DateFrom, req.DateTo)
	if err != nil {
		return fmt.Errorf("invalid date range: %w", err)
	}
	if from.After(to) {
		return fmt.Errorf("invalid date range: %s is after %s", req.DateFrom, req.DateTo)
	}

	it := partition.Partition(from, to, req.DaysPerChunk)
	// one-day chunks already cover the holidays on their own
	var holidays []partition.Chunk
	if req.DaysPerChunk > 1 {
		holidays = partition.HolidayChunks(from, to)
	}
	next := func() (partition.Chunk, bool) {
		if c, ok := it.Next(); ok {
			return c, true
		}
		if len(holidays) == 0 {
			return partition.Chunk{}, false
		}
		c := holidays[0]
		holidays = holidays[1:]
		r.log.Debug("Re-requesting holiday date", logger.Fields{"date": c.FromString()})
		return c, true
	}

	r.log.Info("Run started", logger.Fields{
		"date_from":      req.DateFrom,
		"date_to":        req.DateTo,
		"chunks":         it.Len(),
		"holiday_chunks": len(holidays),
		"countries":      len(req.Countries),
	})

	if err := ctx.Err(); err != nil {
		r.report.Cancelled = true
		return nil
	}

	r.cookies, err = o.session.GetOrRefresh(ctx)
	if err != nil {
		return err
	}

	for i := 0; ; i++ {
		chunk, ok := next()
		if !ok {
			return nil
		}
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				r.report.Cancelled = true
				return nil
			}
		}
		if ctx.Err() != nil {
			r.report.Cancelled = true
			return nil
		}
		if err := o.processChunk(ctx, r, chunk); err != nil {
			return err
		}
	}
}

// processChunk returns an error only when the run cannot continue.
func (o *Orchestrator) processChunk(ctx context.Context, r *run, chunk partition.Chunk) error {
	ctx, span := tracer.Start(ctx, "pipeline.chunk", trace.WithAttributes(
		attribute.String("chunk.from", chunk.FromString()),
		attribute.String("chunk.to", chunk.ToString()),
	))
	defer span.End()

	log := r.log.With(logger.Fields{
		"chunk_from": chunk.FromString(),
		"chunk_to":   chunk.ToString(),
	})
	r.report.ChunksAttempted++
	o.metrics.ChunkAttempted()

	frag, err := o.fetchWithRetry(ctx, r, log, chunk)
	if err != nil {
		if errors.Is(err, session.ErrAcquisition) {
			return err
		}
		span.RecordError(err)
		o.skip(r, log, chunk, scraper.ReasonOf(err), err)
		return nil
	}

	res, err := scraper.Extract(frag.HTML)
	if err != nil {
		o.skip(r, log, chunk, scraper.ReasonMalformed, err)
		return nil
	}
	events := res.Events
	rejected := res.RowsRejected

	if o.fallback.ShouldRun(len(events)) {
		holidays, err := scraper.ExtractHolidays(frag.HTML)
		if err != nil {
			log.Warn("Holiday extraction failed", logger.Fields{"error": err.Error()})
		} else {
			if len(holidays.Events) > 0 {
				log.Debug("Holiday fallback produced events", logger.Fields{"events": len(holidays.Events)})
			}
			events = append(events, holidays.Events...)
			if len(res.Events) == 0 {
				rejected += holidays.RowsRejected
			}
		}
	}

	rows := frag.RowsNum
	if rows == 0 {
		rows = res.RowsSeen
	}
	if partition.NearCap(rows, o.rowCapHint) {
		r.report.ChunksNearCap++
		o.metrics.ChunkNearCap()
		log.Warn("Chunk row count near response cap; results may be truncated", logger.Fields{
			"rows":    rows,
			"row_cap": o.rowCapHint,
		})
	}

	stats := r.set.Merge(events)
	rejected += stats.Invalid
	r.report.DuplicatesDropped += stats.Duplicates
	r.report.RowsRejected += rejected
	r.report.ChunksProcessed++
	if len(events) > 0 {
		r.report.ChunksWithEvents++
	}
	o.metrics.ChunkProcessed()
	o.metrics.EventsMerged(stats.Added, stats.Duplicates, rejected)

	span.SetAttributes(attribute.Int("events.added", stats.Added))
	log.Info("Chunk processed", logger.Fields{
		"events":     stats.Added,
		"duplicates": stats.Duplicates,
		"rejected":   rejected,
	})
	return nil
}

// fetchWithRetry runs on a context detached from cancellation so a started
// chunk completes. Every blocked response that still has a retry left
// invalidates the session, so each retry carries freshly acquired cookies.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, r *run, log *logger.Logger, chunk partition.Chunk) (scraper.Fragment, error) {
	ctx = context.WithoutCancel(ctx)

	var (
		frag    scraper.Fragment
		attempt int
	)
	operation := func() error {
		attempt++
		start := time.Now()
		f, err := o.fetcher.Fetch(ctx, chunk, r.cookies, r.filters)
		if err == nil {
			o.metrics.FetchAttempt("ok", time.Since(start))
			frag = f
			return nil
		}

		reason := scraper.ReasonOf(err)
		o.metrics.FetchAttempt(string(reason), time.Since(start))
		log.Warn("Fetch attempt failed", logger.Fields{
			"attempt": attempt,
			"reason":  string(reason),
			"error":   err.Error(),
		})

		if reason == scraper.ReasonBlocked && attempt < o.maxAttempts {
			o.session.Invalidate()
			fresh, serr := o.session.GetOrRefresh(ctx)
			if serr != nil {
				return backoff.Permanent(serr)
			}
			r.cookies = fresh
			r.report.SessionRefreshes++
			log.Info("Session refreshed after blocked response", logger.Fields{"attempt": attempt})
		}
		return err
	}

	policy := backoff.WithMaxRetries(o.newBackOff(), uint64(o.maxAttempts-1))
	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		log.Debug("Retrying chunk", logger.Fields{
			"attempt": attempt + 1,
			"wait":    wait.String(),
		})
	})
	return frag, err
}

func (o *Orchestrator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.backoffInitial
	b.MaxInterval = o.backoffMax
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (o *Orchestrator) skip(r *run, log *logger.Logger, chunk partition.Chunk, reason scraper.Reason, err error) {
	r.report.SkippedChunks = append(r.report.SkippedChunks, SkippedChunk{
		From:   chunk.FromString(),
		To:     chunk.ToString(),
		Reason: reason,
		Error:  err.Error(),
	})
	o.metrics.ChunkSkipped(string(reason))
	log.Error("Chunk skipped", logger.Fields{"reason": string(reason)}, err)
}

// pause waits a uniformly random delay in [delayMin, delayMax], returning early on cancellation.
func (o *Orchestrator) pause(ctx context.Context) error {
	d := o.delayMin
	if spread := o.delayMax - o.delayMin; spread > 0 {
		d += time.Duration(o.jitter(int64(spread) + 1))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *Orchestrator) finalize(r *run, err error, elapsed time.Duration) {
	r.report.Events = r.set.Events()
	r.report.TotalEvents = len(r.report.Events)
	// rows without an id are never deduplicated
	r.report.UnkeyedEvents = r.set.Len() - r.set.KeyedLen()
	r.report.Success = err == nil
	if err != nil {
		r.report.ErrorMessage = err.Error()
	}

	result := "success"
	switch {
	case err != nil:
		result = "failed"
	case r.report.Cancelled:
		result = "cancelled"
	case r.report.Partial():
		result = "partial"
	}
	o.metrics.RunCompleted(result, r.report.TotalEvents, elapsed)

	fields := logger.Fields{
		"result":           result,
		"events":           r.report.TotalEvents,
		"unkeyed_events":   r.report.UnkeyedEvents,
		"chunks_attempted": r.report.ChunksAttempted,
		"chunks_processed": r.report.ChunksProcessed,
		"chunks_skipped":   len(r.report.SkippedChunks),
		"duration":         elapsed.String(),
	}
	if err != nil {
		r.log.Error("Run failed", fields, err)
		return
	}
	r.log.Info("Run finished", fields)
}
