package personnel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/campops/campops/internal/progress"
)

// ImportResult summarizes a roster import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// rosterColumns maps header names to record positions. Header matching is
// case-insensitive and ignores surrounding whitespace.
var rosterColumns = []string{"badge_no", "first_name", "last_name", "trade", "company", "phone", "email", "status"}

// ImportCSV reads a roster CSV and upserts each row keyed by badge number.
// The first row must be a header containing at least badge_no, first_name,
// and last_name. Rows with a missing badge number are skipped and reported
// in the result; the import continues.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader, reporter progress.Reporter) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"badge_no", "first_name", "last_name"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("CSV header missing required column %q", required)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV records: %w", err)
	}

	if reporter != nil {
		reporter.Start(len(records))
		defer reporter.Finish()
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	result := &ImportResult{}
	for i, record := range records {
		line := i + 2 // header is line 1

		e := Employee{
			BadgeNo:   field(record, "badge_no"),
			FirstName: field(record, "first_name"),
			LastName:  field(record, "last_name"),
			Trade:     field(record, "trade"),
			Company:   field(record, "company"),
			Phone:     field(record, "phone"),
			Email:     field(record, "email"),
			Status:    EmployeeStatus(field(record, "status")),
		}
		if e.BadgeNo == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing badge_no", line))
			continue
		}
		switch e.Status {
		case "", StatusActive, StatusOnLeave, StatusSeparated:
		default:
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: unknown status %q", line, e.Status))
			continue
		}

		if err := s.Upsert(ctx, &e); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Imported++

		if reporter != nil {
			reporter.Update(i+1, e.BadgeNo)
		}
	}

	return result, nil
}
