package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

const backupLayout = "20060102_150405"

// csvMergeStats summarizes an accumulating CSV write.
type csvMergeStats struct {
	Existing int
	Replaced int
	Dropped  int
	Written  int
	Backup   string
}

type csvRowKey struct {
	dateTime string
	name     string
	country  string
}

// appendCSV folds events into the CSV file at path. Rows are keyed by
// DateTime, Event and Country; a row from this run replaces an earlier one
// with the same key, and rows missing DateTime or Event are dropped. The
// result is sorted newest first. An existing file is copied to
// path.backup_YYYYMMDD_HHMMSS before it is replaced.
func appendCSV(path string, events []*event.Event, now time.Time) (csvMergeStats, error) {
	var stats csvMergeStats

	existing, err := readCSVRows(path)
	if err != nil {
		return stats, err
	}
	stats.Existing = len(existing)

	if existing != nil {
		stats.Backup = fmt.Sprintf("%s.backup_%s", path, now.Format(backupLayout))
		if err := copyFile(path, stats.Backup); err != nil {
			return stats, fmt.Errorf("backing up %s: %w", path, err)
		}
	}

	rows := make(map[csvRowKey][]string, len(existing)+len(events))
	add := func(record []string) bool {
		key := csvRowKey{dateTime: record[0], name: record[1], country: record[2]}
		if key.dateTime == "" || key.name == "" {
			stats.Dropped++
			return false
		}
		_, seen := rows[key]
		rows[key] = record
		return seen
	}
	for _, record := range existing {
		add(record)
	}
	for _, evt := range events {
		if add(csvRecord(evt)) {
			stats.Replaced++
		}
	}

	merged := make([][]string, 0, len(rows))
	for _, record := range rows {
		merged = append(merged, record)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i][0] != merged[j][0] {
			return merged[i][0] > merged[j][0]
		}
		return merged[i][1] < merged[j][1]
	})
	stats.Written = len(merged)

	tmp := path + ".tmp"
	if err := writeCSVRows(tmp, merged); err != nil {
		os.Remove(tmp)
		return stats, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return stats, fmt.Errorf("replacing %s: %w", path, err)
	}
	return stats, nil
}

// readCSVRows loads a previously written file, mapping its columns onto
// csvHeader by name. A missing file yields nil.
func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return [][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	column := make(map[string]int, len(header))
	for i, name := range header {
		column[name] = i
	}

	rows := [][]string{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		row := make([]string, len(csvHeader))
		for i, name := range csvHeader {
			if idx, ok := column[name]; ok && idx < len(record) {
				row[i] = record[idx]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeCSVRows(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		f.Close()
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
