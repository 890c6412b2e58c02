package session

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	// DefaultUserAgent is the desktop Chrome user agent presented to the site.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	// DefaultBrowserTimeout bounds one page visit.
	DefaultBrowserTimeout = 60 * time.Second
)

// ChromeBrowser harvests cookies with a headless Chrome driven over the DevTools protocol.
type ChromeBrowser struct {
	Headless  bool
	UserAgent string
	Timeout   time.Duration
	// WaitSelector must be ready before cookies are read.
	WaitSelector string
}

// NewChromeBrowser returns a ChromeBrowser with default settings.
func NewChromeBrowser(headless bool) *ChromeBrowser {
	return &ChromeBrowser{
		Headless:     headless,
		UserAgent:    DefaultUserAgent,
		Timeout:      DefaultBrowserTimeout,
		WaitSelector: "body",
	}
}

// HarvestCookies navigates to targetURL, waits for the page body and returns every cookie
// the browser holds. The browser process is torn down before returning.
func (b *ChromeBrowser) HarvestCookies(ctx context.Context, targetURL string) (map[string]string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(b.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, timeout)
	defer cancelTimeout()

	waitSelector := b.WaitSelector
	if waitSelector == "" {
		waitSelector = "body"
	}

	var cookies []*network.Cookie
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("harvesting cookies from %s: %w", targetURL, err)
	}

	return cookieValues(cookies), nil
}

// cookieValues flattens DevTools cookies into a name→value map.
func cookieValues(cookies []*network.Cookie) map[string]string {
	values := make(map[string]string, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		values[c.Name] = c.Value
	}
	return values
}
