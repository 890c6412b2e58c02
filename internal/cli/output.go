package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/econ-calendar/internal/calendar"
	"github.com/pfrederiksen/econ-calendar/internal/event"
	"github.com/pfrederiksen/econ-calendar/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatCSV  OutputFormat = "csv"
	FormatICS  OutputFormat = "ics"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatCSV, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'json', 'yaml', 'csv', or 'ics')", s)
	}
}

// OutputResult contains data to be output
type OutputResult struct {
	RunID           string                  `json:"run_id" yaml:"run_id"`
	CheckedAt       time.Time               `json:"checked_at" yaml:"checked_at"`
	Success         bool                    `json:"success" yaml:"success"`
	DateRange       pipeline.DateRange      `json:"date_range" yaml:"date_range"`
	Events          []*event.Event          `json:"events" yaml:"events"`
	TotalEvents     int                     `json:"total_events" yaml:"total_events"`
	Holidays        []*event.Event          `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	TotalHolidays   int                     `json:"total_holidays,omitempty" yaml:"total_holidays,omitempty"`
	NewOnly         bool                    `json:"new_only,omitempty" yaml:"new_only,omitempty"`
	Changes         []*event.EventChange    `json:"changes,omitempty" yaml:"changes,omitempty"`
	ChunksAttempted int                     `json:"chunks_attempted" yaml:"chunks_attempted"`
	ChunksProcessed int                     `json:"chunks_processed" yaml:"chunks_processed"`
	SkippedChunks   []pipeline.SkippedChunk `json:"skipped_chunks,omitempty" yaml:"skipped_chunks,omitempty"`
	Partial         bool                    `json:"partial,omitempty" yaml:"partial,omitempty"`
	Cancelled       bool                    `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	ErrorMessage    string                  `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	// TimezoneOffset converts event wall-clock times to UTC for iCalendar output.
	TimezoneOffset time.Duration `json:"-" yaml:"-"`
}

// newOutputResult copies run metadata from a report. Events are set by the caller.
func newOutputResult(report pipeline.Report, checkedAt time.Time) *OutputResult {
	return &OutputResult{
		RunID:           report.RunID,
		CheckedAt:       checkedAt,
		Success:         report.Success,
		DateRange:       report.DateRange,
		Events:          []*event.Event{},
		ChunksAttempted: report.ChunksAttempted,
		ChunksProcessed: report.ChunksProcessed,
		SkippedChunks:   report.SkippedChunks,
		Partial:         report.Partial(),
		Cancelled:       report.Cancelled,
		ErrorMessage:    report.ErrorMessage,
	}
}

// SetEvents stores events, moving holidays to their own list when split is true.
func (r *OutputResult) SetEvents(events []*event.Event, split bool) {
	r.Events = make([]*event.Event, 0, len(events))
	r.Holidays = nil
	for _, evt := range events {
		if split && evt.IsHoliday() {
			r.Holidays = append(r.Holidays, evt)
			continue
		}
		r.Events = append(r.Events, evt)
	}
	r.TotalEvents = len(r.Events)
	r.TotalHolidays = len(r.Holidays)
}

// allEvents returns events followed by split-off holidays.
func (r *OutputResult) allEvents() []*event.Event {
	if len(r.Holidays) == 0 {
		return r.Events
	}
	all := make([]*event.Event, 0, len(r.Events)+len(r.Holidays))
	all = append(all, r.Events...)
	return append(all, r.Holidays...)
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	case FormatCSV:
		return writeCSV(w, result.allEvents())
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(result.allEvents(), result.TimezoneOffset, result.CheckedAt))
		return err
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeYAML(w io.Writer, result *OutputResult) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return encoder.Close()
}

const csvDateTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"DateTime", "Event", "Country", "Impact", "Currency", "Actual", "Forecast", "Previous", "EventID"}

func writeCSV(w io.Writer, events []*event.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, evt := range events {
		if err := cw.Write(csvRecord(evt)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvRecord renders an event in csvHeader column order.
func csvRecord(evt *event.Event) []string {
	dt := ""
	if t := evt.Date(); !t.IsZero() {
		dt = t.Format(csvDateTimeLayout)
	}
	return []string{
		dt,
		evt.EventName,
		evt.Country,
		string(evt.Impact),
		evt.CountryCode,
		evt.Actual,
		evt.Forecast,
		evt.Previous,
		evt.EventID,
	}
}

// writeText outputs results as human-readable text, grouped by day
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	label := "events"
	if result.NewOnly {
		label = "new events"
	}

	if !result.Success {
		fmt.Fprintf(w, "Run failed: %s\n", result.ErrorMessage)
	}

	events := result.allEvents()
	if len(events) == 0 {
		fmt.Fprintf(w, "No %s found for %s to %s.\n", label, result.DateRange.From, result.DateRange.To)
	} else {
		currentDay := ""
		for _, evt := range events {
			if day := evt.Day; day != currentDay {
				currentDay = day
				if day == "" {
					day = "Undated"
				}
				fmt.Fprintf(w, "\n%s\n", day)
			}
			fmt.Fprintf(w, "  %-8s %-4s %-8s %s\n", displayTime(evt), evt.CountryCode, evt.Impact, evt.EventName)
			if values := valueLine(evt); values != "" {
				fmt.Fprintf(w, "  %-8s %-4s %-8s %s\n", "", "", "", values)
			}
			if verbose {
				fmt.Fprintf(w, "           ID: %s\n", evt.Key())
				if evt.EventDetailURL != "" {
					fmt.Fprintf(w, "           URL: %s\n", evt.EventDetailURL)
				}
			}
		}
		fmt.Fprintf(w, "\nTotal: %d %s", result.TotalEvents, label)
		if result.TotalHolidays > 0 {
			fmt.Fprintf(w, ", %d holidays", result.TotalHolidays)
		}
		fmt.Fprintln(w)
	}

	if len(result.Changes) > 0 {
		fmt.Fprintf(w, "\nChanged since last run (%d):\n", len(result.Changes))
		for _, c := range result.Changes {
			fmt.Fprintf(w, "  %s %s: %s -> %s\n", c.EventName, c.ChangeType, orDash(c.OldValue), orDash(c.NewValue))
		}
	}

	if result.Partial {
		fmt.Fprintf(w, "\nWarning: %d of %d chunks could not be retrieved:\n",
			result.ChunksAttempted-result.ChunksProcessed, result.ChunksAttempted)
		for _, sc := range result.SkippedChunks {
			fmt.Fprintf(w, "  %s..%s (%s)\n", sc.From, sc.To, sc.Reason)
		}
	}
	if result.Cancelled {
		fmt.Fprintln(w, "\nRun was interrupted; results are incomplete.")
	}

	return nil
}

func displayTime(evt *event.Event) string {
	if evt.Time != "" {
		return evt.Time
	}
	if t := evt.Date(); !t.IsZero() {
		return t.Format("15:04")
	}
	return "-"
}

func valueLine(evt *event.Event) string {
	var parts []string
	if evt.Actual != "" {
		parts = append(parts, "Actual: "+evt.Actual)
	}
	if evt.Forecast != "" {
		parts = append(parts, "Forecast: "+evt.Forecast)
	}
	if evt.Previous != "" {
		parts = append(parts, "Previous: "+evt.Previous)
	}
	return strings.Join(parts, "  ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
