package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/pfrederiksen/econ-calendar/internal/logger"
)

const (
	// CalendarURL is the page visited to obtain session cookies.
	CalendarURL = "https://www.investing.com/economic-calendar/"
	// DefaultTTL is how long a cookie set is reused.
	DefaultTTL = time.Hour
)

// ErrAcquisition is returned when no usable cookie set could be obtained.
var ErrAcquisition = errors.New("session acquisition failed")

var tracer = otel.Tracer("github.com/pfrederiksen/econ-calendar/internal/session")

// Browser visits a page and returns the cookies it ends up holding.
type Browser interface {
	HarvestCookies(ctx context.Context, targetURL string) (map[string]string, error)
}

// Recorder observes cookie acquisitions and invalidations.
// *metrics.Manager satisfies it.
type Recorder interface {
	SessionRefreshed()
	SessionInvalidated()
}

type nopRecorder struct{}

func (nopRecorder) SessionRefreshed()   {}
func (nopRecorder) SessionInvalidated() {}

// Provider hands out cached session cookies, refreshing them through a Browser.
// It is safe for concurrent use.
type Provider struct {
	browser   Browser
	targetURL string
	ttl       time.Duration
	cache     *expirable.LRU[string, CookieSet]
	group     singleflight.Group
	recorder  Recorder
}

// Option configures a Provider.
type Option func(*Provider)

// WithTTL sets the cookie validity window.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithTargetURL sets the page visited to obtain cookies.
func WithTargetURL(u string) Option {
	return func(p *Provider) {
		if u != "" {
			p.targetURL = u
		}
	}
}

// WithRecorder reports every successful acquisition and every invalidation to r.
func WithRecorder(r Recorder) Option {
	return func(p *Provider) {
		if r != nil {
			p.recorder = r
		}
	}
}

// New creates a Provider. No browser is launched until cookies are first requested.
func New(browser Browser, opts ...Option) *Provider {
	p := &Provider{
		browser:   browser,
		targetURL: CalendarURL,
		ttl:       DefaultTTL,
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = expirable.NewLRU[string, CookieSet](1, nil, p.ttl)
	return p
}

// GetOrRefresh returns the cached cookie set, acquiring a new one if none is valid.
func (p *Provider) GetOrRefresh(ctx context.Context) (CookieSet, error) {
	return p.Cookies(ctx, true)
}

// Cookies returns a cookie set. With useCache false a new set is always acquired.
// On failure the returned set is empty and the error wraps ErrAcquisition;
// the cache is only written on success.
func (p *Provider) Cookies(ctx context.Context, useCache bool) (CookieSet, error) {
	if useCache {
		if set, ok := p.cached(); ok {
			return set, nil
		}
	}

	v, err, shared := p.group.Do(p.targetURL, func() (interface{}, error) {
		if useCache {
			if set, ok := p.cached(); ok {
				return set, nil
			}
		}
		return p.refresh(ctx)
	})
	if err != nil {
		return CookieSet{}, err
	}
	if shared {
		logger.Debug("Joined in-flight session refresh", nil)
	}
	return v.(CookieSet), nil
}

// Invalidate drops the cached cookie set so the next request acquires a new one.
func (p *Provider) Invalidate() {
	if p.cache.Remove(p.targetURL) {
		logger.Info("Session cookies invalidated", logger.Fields{"target": p.targetURL})
	}
	p.recorder.SessionInvalidated()
}

func (p *Provider) cached() (CookieSet, bool) {
	set, ok := p.cache.Get(p.targetURL)
	if !ok || set.Empty() || set.Expired(time.Now()) {
		return CookieSet{}, false
	}
	return set, true
}

func (p *Provider) refresh(ctx context.Context) (CookieSet, error) {
	ctx, span := tracer.Start(ctx, "session.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("session.target", p.targetURL))

	start := time.Now()
	values, err := p.browser.HarvestCookies(ctx, p.targetURL)
	if err == nil && len(values) == 0 {
		err = errors.New("browser returned no cookies")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Session acquisition failed", logger.Fields{
			"target":   p.targetURL,
			"duration": time.Since(start).String(),
		}, err)
		return CookieSet{}, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	set := CookieSet{
		Values:    values,
		CreatedAt: time.Now(),
		TTL:       p.ttl,
	}
	p.cache.Add(p.targetURL, set)
	p.recorder.SessionRefreshed()

	span.SetAttributes(attribute.Int("session.cookies", len(values)))
	logger.Info("Session cookies acquired", logger.Fields{
		"target":   p.targetURL,
		"cookies":  len(values),
		"duration": time.Since(start).String(),
	})
	return set, nil
}
