package pipeline

import (
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
	"github.com/pfrederiksen/econ-calendar/internal/partition"
	"github.com/pfrederiksen/econ-calendar/internal/registry"
	"github.com/pfrederiksen/econ-calendar/internal/scraper"
)

// DefaultRangeDays is the span used when DateTo is not given.
const DefaultRangeDays = 30

// Request describes one retrieval. Zero values select the defaults.
type Request struct {
	// DateFrom and DateTo are inclusive, formatted 2006-01-02.
	DateFrom     string   `json:"date_from"`
	DateTo       string   `json:"date_to"`
	Countries    []int    `json:"countries,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Importance   []int    `json:"importance,omitempty"`
	TimezoneID   int      `json:"timezone_id,omitempty"`
	TimeFilter   string   `json:"time_filter,omitempty"`
	DaysPerChunk int      `json:"days_per_chunk,omitempty"`
}

// withDefaults fills unset fields. Dates default to today and today+30.
func (r Request) withDefaults(now time.Time) Request {
	today := now.UTC()
	if r.DateFrom == "" {
		r.DateFrom = today.Format(partition.DateLayout)
	}
	if r.DateTo == "" {
		r.DateTo = today.AddDate(0, 0, DefaultRangeDays).Format(partition.DateLayout)
	}
	if len(r.Countries) == 0 {
		r.Countries = registry.AllCountryCodes()
	}
	if len(r.Categories) == 0 {
		r.Categories = registry.AllCategories()
	}
	if len(r.Importance) == 0 {
		r.Importance = []int{1, 2, 3}
	}
	if r.TimezoneID == 0 {
		r.TimezoneID = registry.DefaultTimezoneID
	}
	if r.TimeFilter == "" {
		r.TimeFilter = scraper.DefaultTimeFilter
	}
	if r.DaysPerChunk <= 0 {
		r.DaysPerChunk = partition.DefaultDaysPerChunk
	}
	return r
}

func (r Request) filters() scraper.Filters {
	return scraper.Filters{
		Countries:  r.Countries,
		Categories: r.Categories,
		Importance: r.Importance,
		TimezoneID: r.TimezoneID,
		TimeFilter: r.TimeFilter,
	}
}

// DateRange is the inclusive range a run covered.
type DateRange struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// SkippedChunk records a chunk abandoned after its retries.
type SkippedChunk struct {
	From   string         `json:"from" yaml:"from"`
	To     string         `json:"to" yaml:"to"`
	Reason scraper.Reason `json:"reason" yaml:"reason"`
	Error  string         `json:"error" yaml:"error"`
}

// Report is the outcome of a run.
type Report struct {
	RunID             string         `json:"run_id" yaml:"run_id"`
	Success           bool           `json:"success" yaml:"success"`
	Events            []*event.Event `json:"events" yaml:"events"`
	DateRange         DateRange      `json:"date_range" yaml:"date_range"`
	TotalEvents       int            `json:"total_events" yaml:"total_events"`
	ChunksAttempted   int            `json:"chunks_attempted" yaml:"chunks_attempted"`
	ChunksProcessed   int            `json:"chunks_processed" yaml:"chunks_processed"`
	ChunksWithEvents  int            `json:"chunks_with_events" yaml:"chunks_with_events"`
	ChunksNearCap     int            `json:"chunks_near_cap" yaml:"chunks_near_cap"`
	SkippedChunks     []SkippedChunk `json:"skipped_chunks,omitempty" yaml:"skipped_chunks,omitempty"`
	DuplicatesDropped int            `json:"duplicates_dropped" yaml:"duplicates_dropped"`
	UnkeyedEvents     int            `json:"unkeyed_events" yaml:"unkeyed_events"`
	RowsRejected      int            `json:"rows_rejected" yaml:"rows_rejected"`
	SessionRefreshes  int            `json:"session_refreshes" yaml:"session_refreshes"`
	Cancelled         bool           `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	ErrorMessage      string         `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Partial reports whether some attempted chunks produced no data.
func (r Report) Partial() bool {
	return r.ChunksProcessed < r.ChunksAttempted
}
