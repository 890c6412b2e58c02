package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pfrederiksen/econ-calendar/internal/partition"
	"github.com/pfrederiksen/econ-calendar/internal/session"
	"github.com/pfrederiksen/econ-calendar/internal/telemetry"
)

const (
	SiteURL           = "https://www.investing.com"
	EndpointURL       = SiteURL + "/economic-calendar/Service/getCalendarFilteredData"
	Timeout           = 30 * time.Second
	DefaultTimeFilter = "timeOnly"
)

var tracer = otel.Tracer("github.com/pfrederiksen/econ-calendar/internal/scraper")

// Reason classifies a fetch failure.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonBlocked   Reason = "blocked"
	ReasonMalformed Reason = "malformed"
	ReasonOther     Reason = "other"
)

// FetchError describes a failed chunk fetch.
type FetchError struct {
	Reason     Reason
	Chunk      partition.Chunk
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching %s: %s", e.Chunk, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReasonOf returns the classification of err, or ReasonOther if err is not a *FetchError.
func ReasonOf(err error) Reason {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ReasonOther
}

// Filters are the query filters sent with every chunk.
type Filters struct {
	Countries  []int
	Categories []string
	Importance []int
	TimezoneID int
	TimeFilter string
}

// Fragment is the markup returned for one chunk.
type Fragment struct {
	Chunk   partition.Chunk
	HTML    string
	RowsNum int
}

// form is the endpoint's form layout; slices encode as repeated keys.
type form struct {
	Countries  []int    `url:"country[],omitempty"`
	Categories []string `url:"category[],omitempty"`
	Importance []int    `url:"importance[],omitempty"`
	DateFrom   string   `url:"dateFrom"`
	DateTo     string   `url:"dateTo"`
	TimeZone   int      `url:"timeZone"`
	TimeFilter string   `url:"timeFilter"`
	CurrentTab string   `url:"currentTab"`
	LimitFrom  int      `url:"limit_from"`
}

func newForm(chunk partition.Chunk, f Filters) form {
	timeFilter := f.TimeFilter
	if timeFilter == "" {
		timeFilter = DefaultTimeFilter
	}
	return form{
		Countries:  f.Countries,
		Categories: f.Categories,
		Importance: f.Importance,
		DateFrom:   chunk.FromString(),
		DateTo:     chunk.ToString(),
		TimeZone:   f.TimezoneID,
		TimeFilter: timeFilter,
		CurrentTab: "custom",
		LimitFrom:  0,
	}
}

// Fetcher posts calendar queries to the site.
type Fetcher struct {
	client   *resty.Client
	endpoint string
	timeout  time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithEndpoint overrides the query endpoint.
func WithEndpoint(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.endpoint = u
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.client.SetHeader("User-Agent", ua)
		}
	}
}

// New creates a Fetcher with browser-like default headers.
func New(opts ...Option) *Fetcher {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeaders(map[string]string{
		"User-Agent":       session.DefaultUserAgent,
		"Accept":           "*/*",
		"Accept-Language":  "en-US,en;q=0.9",
		"Content-Type":     "application/x-www-form-urlencoded",
		"Origin":           SiteURL,
		"Referer":          session.CalendarURL,
		"X-Requested-With": "XMLHttpRequest",
	})
	telemetry.InstrumentResty(client, "github.com/pfrederiksen/econ-calendar/internal/scraper/http")

	f := &Fetcher{
		client:   client,
		endpoint: EndpointURL,
		timeout:  Timeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the calendar fragment for one chunk. Any failure is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, chunk partition.Chunk, cookies session.CookieSet, filters Filters) (Fragment, error) {
	ctx, span := tracer.Start(ctx, "scraper.fetch", trace.WithAttributes(
		attribute.String("chunk.from", chunk.FromString()),
		attribute.String("chunk.to", chunk.ToString()),
	))
	defer span.End()

	frag, err := f.fetch(ctx, chunk, cookies, filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ReasonOf(err)))
		return Fragment{}, err
	}
	span.SetAttributes(attribute.Int("fragment.bytes", len(frag.HTML)))
	return frag, nil
}

func (f *Fetcher) fetch(ctx context.Context, chunk partition.Chunk, cookies session.CookieSet, filters Filters) (Fragment, error) {
	values, err := query.Values(newForm(chunk, filters))
	if err != nil {
		return Fragment{}, &FetchError{Reason: ReasonOther, Chunk: chunk, Err: fmt.Errorf("encoding form: %w", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req := f.client.R().SetContext(reqCtx).SetFormDataFromValues(values)
	if !cookies.Empty() {
		req.SetHeader("Cookie", cookies.Header())
	}

	resp, err := req.Post(f.endpoint)
	if err != nil {
		return Fragment{}, &FetchError{Reason: classifyTransport(err), Chunk: chunk, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case isBlockedStatus(status):
		return Fragment{}, &FetchError{Reason: ReasonBlocked, Chunk: chunk, StatusCode: status}
	case status != http.StatusOK:
		return Fragment{}, &FetchError{Reason: ReasonOther, Chunk: chunk, StatusCode: status}
	}

	html, rows, err := decodeBody(resp.Body())
	if err != nil {
		reason := ReasonMalformed
		if isChallengePage(resp.Body()) {
			reason = ReasonBlocked
		}
		return Fragment{}, &FetchError{Reason: reason, Chunk: chunk, StatusCode: status, Err: err}
	}

	return Fragment{Chunk: chunk, HTML: html, RowsNum: rows}, nil
}

// decodeBody extracts the HTML fragment and row count from the endpoint's JSON envelope.
func decodeBody(body []byte) (string, int, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decoding response: %w", err)
	}
	raw, ok := payload["data"]
	if !ok {
		return "", 0, errors.New("response has no data key")
	}
	var html string
	if err := json.Unmarshal(raw, &html); err != nil {
		return "", 0, fmt.Errorf("data is not a string: %w", err)
	}
	return html, rowsNum(payload["rows_num"]), nil
}

// rowsNum accepts rows_num as a number or a numeric string.
func rowsNum(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}

func isBlockedStatus(status int) bool {
	return status == http.StatusUnauthorized ||
		status == http.StatusForbidden ||
		status == http.StatusTooManyRequests
}

// isChallengePage spots an anti-bot interstitial served with status 200.
func isChallengePage(body []byte) bool {
	s := strings.ToLower(string(body))
	return strings.Contains(s, "just a moment") ||
		strings.Contains(s, "cf-chl") ||
		strings.Contains(s, "captcha")
}

func classifyTransport(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonOther
}
