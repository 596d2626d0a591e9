package ingestion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/intelboard/api/internal/domain"
)

// timestampFormat is the single temporal representation rows carry across
// the store boundary.
const timestampFormat = "2006-01-02 15:04:05"

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05.000000000",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// nullSentinels are raw cell values treated as absent. Matching is
// case-insensitive after trimming.
var nullSentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"nat":  {},
	"null": {},
	"none": {},
	"na":   {},
	"n/a":  {},
}

// columnsMatch reports whether the uploaded header set exactly equals the
// expected column set after trimming and lower-casing. Order is ignored and
// duplicate headers collapse. An empty header never matches.
func columnsMatch(headers []string, schema domain.DatasetSchema) bool {
	if len(headers) == 0 {
		return false
	}

	got := make(map[string]struct{}, len(headers))
	for _, header := range headers {
		got[domain.CanonicalKey(header)] = struct{}{}
	}

	want := make(map[string]struct{}, len(schema.Columns))
	for _, col := range schema.Columns {
		want[domain.CanonicalKey(col.Name)] = struct{}{}
	}

	if len(got) != len(want) {
		return false
	}
	for key := range want {
		if _, ok := got[key]; !ok {
			return false
		}
	}
	return true
}

// normalizeRow converts one parsed record into a Row containing exactly the
// schema's columns under their canonical spelling. Missing columns become
// nil, except timestamp and inserted_at which are always stamped with now.
// The primary key column is never coerced to a number so IDs like "T200" or
// zero-padded values survive intact.
func normalizeRow(schema domain.DatasetSchema, headers []string, record []string, now time.Time) domain.Row {
	byCanonical := make(map[string]string, len(headers))
	for i, header := range headers {
		if i >= len(record) {
			continue
		}
		if canonical, ok := schema.CanonicalName(header); ok {
			byCanonical[canonical] = record[i]
		}
	}

	row := make(domain.Row, len(schema.Columns))
	for _, col := range schema.Columns {
		raw, present := byCanonical[col.Name]
		if !present {
			if isTimeColumn(col.Name) {
				row[col.Name] = now.Format(timestampFormat)
			} else {
				row[col.Name] = nil
			}
			continue
		}
		row[col.Name] = coerceValue(schema, col, raw)
	}
	return row
}

// verbatimRow preserves an unmatching record exactly as uploaded, keyed by
// the trimmed raw headers. These rows are staged for human review and never
// cross the store boundary.
func verbatimRow(headers []string, record []string) domain.Row {
	row := make(domain.Row, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		if i < len(record) {
			row[header] = record[i]
		} else {
			row[header] = nil
		}
	}
	return row
}

// coerceValue flattens one raw cell into the scalar set the store accepts.
// Coercion is best effort: a value that fails its declared type passes
// through as a string rather than aborting the row, so a malformed cell
// surfaces as a per-row store error instead of a batch failure.
func coerceValue(schema domain.DatasetSchema, col domain.Column, raw string) any {
	trimmed := strings.TrimSpace(raw)
	if _, isNull := nullSentinels[strings.ToLower(trimmed)]; isNull {
		return nil
	}

	if col.Name == schema.PrimaryKey {
		return trimmed
	}

	switch col.Type {
	case domain.ColumnTypeInteger:
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && math.Mod(f, 1) == 0 {
			return int64(f)
		}
		return trimmed
	case domain.ColumnTypeFloat:
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
		return trimmed
	case domain.ColumnTypeTimestamp:
		if ts, err := parseTimestamp(trimmed); err == nil {
			return ts.Format(timestampFormat)
		}
		return trimmed
	default:
		return raw
	}
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// isTimeColumn reports whether a column is one of the wall-clock columns
// the reconciler stamps itself.
func isTimeColumn(name string) bool {
	return name == "timestamp" || name == "inserted_at"
}
