package session

import (
	"sort"
	"strings"
	"time"
)

// CookieSet is one harvested set of session cookies.
type CookieSet struct {
	Values    map[string]string
	CreatedAt time.Time
	TTL       time.Duration
}

// Empty reports whether the set holds no cookies.
func (c CookieSet) Empty() bool {
	return len(c.Values) == 0
}

// Expired reports whether the set is past its validity window at now.
func (c CookieSet) Expired(now time.Time) bool {
	if c.TTL <= 0 {
		return false
	}
	return now.Sub(c.CreatedAt) >= c.TTL
}

// Header renders the set as a Cookie header value, sorted by name.
func (c CookieSet) Header() string {
	names := make([]string, 0, len(c.Values))
	for name := range c.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+c.Values[name])
	}
	return strings.Join(parts, "; ")
}
