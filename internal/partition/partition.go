package partition

import (
	"fmt"
	"time"
)

const (
	// DefaultDaysPerChunk is the chunk width used when none is given.
	DefaultDaysPerChunk = 1
	// DefaultRowCapHint is the row count at which a chunk is suspected truncated.
	DefaultRowCapHint = 200
	// DateLayout is the form-field date format used by the endpoint.
	DateLayout = "2006-01-02"
)

// Chunk is an inclusive day range.
type Chunk struct {
	From time.Time
	To   time.Time
}

// String renders the chunk as "from..to".
func (c Chunk) String() string {
	return c.FromString() + ".." + c.ToString()
}

// FromString returns From in endpoint format.
func (c Chunk) FromString() string {
	return c.From.Format(DateLayout)
}

// ToString returns To in endpoint format.
func (c Chunk) ToString() string {
	return c.To.Format(DateLayout)
}

// Days returns the number of days the chunk covers.
func (c Chunk) Days() int {
	return int(c.To.Sub(c.From).Hours()/24) + 1
}

// Iterator yields chunks lazily in ascending order.
type Iterator struct {
	from         time.Time
	to           time.Time
	daysPerChunk int
	next         time.Time
}

// Partition returns an iterator over [from, to] split into daysPerChunk-wide chunks.
// Times are truncated to their calendar day. daysPerChunk < 1 is treated as 1.
// A reversed range yields no chunks.
func Partition(from, to time.Time, daysPerChunk int) *Iterator {
	if daysPerChunk < 1 {
		daysPerChunk = DefaultDaysPerChunk
	}
	it := &Iterator{
		from:         day(from),
		to:           day(to),
		daysPerChunk: daysPerChunk,
	}
	it.Reset()
	return it
}

// Next returns the next chunk and true, or false when the range is exhausted.
func (it *Iterator) Next() (Chunk, bool) {
	if it.next.After(it.to) {
		return Chunk{}, false
	}
	end := it.next.AddDate(0, 0, it.daysPerChunk-1)
	if end.After(it.to) {
		end = it.to
	}
	c := Chunk{From: it.next, To: end}
	it.next = end.AddDate(0, 0, 1)
	return c, true
}

// Reset restarts the iteration from the first chunk.
func (it *Iterator) Reset() {
	it.next = it.from
}

// Len returns the total number of chunks in the range.
func (it *Iterator) Len() int {
	return Count(it.from, it.to, it.daysPerChunk)
}

// Chunks collects every chunk of the range.
func Chunks(from, to time.Time, daysPerChunk int) []Chunk {
	it := Partition(from, to, daysPerChunk)
	out := make([]Chunk, 0, it.Len())
	for c, ok := it.Next(); ok; c, ok = it.Next() {
		out = append(out, c)
	}
	return out
}

// Count returns the number of chunks without iterating.
func Count(from, to time.Time, daysPerChunk int) int {
	if daysPerChunk < 1 {
		daysPerChunk = DefaultDaysPerChunk
	}
	from, to = day(from), day(to)
	if from.After(to) {
		return 0
	}
	days := int(to.Sub(from).Hours()/24) + 1
	return (days + daysPerChunk - 1) / daysPerChunk
}

// ParseRange parses two endpoint-format dates.
func ParseRange(from, to string) (time.Time, time.Time, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing date from %q: %w", from, err)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing date to %q: %w", to, err)
	}
	return f, t, nil
}

// HolidayChunks returns a single-day chunk for every January 1 and December 25
// inside [from, to], in ascending order. Wide chunks tend to omit the rows for
// these days, so callers re-request them on their own.
func HolidayChunks(from, to time.Time) []Chunk {
	from, to = day(from), day(to)
	var out []Chunk
	for year := from.Year(); year <= to.Year(); year++ {
		for _, d := range []time.Time{
			time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC),
		} {
			if !d.Before(from) && !d.After(to) {
				out = append(out, Chunk{From: d, To: d})
			}
		}
	}
	return out
}

// NearCap reports whether a chunk's row count suggests the response was truncated.
func NearCap(rows, capHint int) bool {
	return capHint > 0 && rows >= capHint
}

// day truncates t to midnight UTC of its calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
