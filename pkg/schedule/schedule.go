// Package schedule resolves the daily Bible reading from a flat calendar file.
//
// The calendar is a comma separated file with one row per day laid out as
// (MM-DD-YY, new testament reading, old testament reading). Rows whose date
// does not parse, such as a header line, are skipped. A missing or unreadable
// file is reported to the caller.
package schedule

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	DefaultPath = "schedule.csv"

	// DateLayout is the MM-DD-YY format used in the first column.
	DateLayout = "01-02-06"

	// parseLayout also accepts month and day without a leading zero.
	parseLayout = "1-2-06"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Entry struct {
	Date         time.Time
	OldTestament string
	NewTestament string
}

type Repository struct {
	Path string
	Now  func() time.Time
}

func NewRepository(path string) *Repository {
	if path == "" {
		path = DefaultPath
	}
	return &Repository{Path: path, Now: time.Now}
}

// Today resolves the entry for the repository clock's current date.
func (r *Repository) Today() (Entry, bool, error) {
	return r.Resolve(r.CurrentDay())
}

// CurrentDay is the calendar date of the repository clock.
func (r *Repository) CurrentDay() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return Day(now())
}

// Resolve re-reads the file and returns the first row dated on the same
// calendar day as date. The boolean is false when no row matches.
func (r *Repository) Resolve(date time.Time) (Entry, bool, error) {
	data, err := os.ReadFile(r.path())
	if err != nil {
		return Entry{}, false, fmt.Errorf("read schedule %s: %w", r.path(), err)
	}

	target := Day(date)
	var found Entry
	ok := false
	err = scanRows(data, func(entry Entry) bool {
		if entry.Date.Equal(target) {
			found = entry
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("parse schedule %s: %w", r.path(), err)
	}
	return found, ok, nil
}

func (r *Repository) path() string {
	if r == nil || r.Path == "" {
		return DefaultPath
	}
	return r.Path
}

// Day truncates t to its calendar date, dropping the location so that dates
// compare by year, month and day only.
func Day(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a MM-DD-YY string into a day value. "1-5-22" is read as
// "01-05-22".
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(parseLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return Day(parsed), nil
}

// scanRows calls visit for every well-formed row until visit returns false.
// Malformed quoting in a single row is treated like any other unparseable row.
func scanRows(data []byte, visit func(Entry) bool) error {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return err
		}
		entry, ok := parseRecord(record)
		if !ok {
			continue
		}
		if !visit(entry) {
			return nil
		}
	}
}

func parseRecord(record []string) (Entry, bool) {
	if len(record) < 3 {
		return Entry{}, false
	}
	date, err := ParseDate(record[0])
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Date:         date,
		OldTestament: record[2],
		NewTestament: record[1],
	}, true
}
