// Package datasource loads delimited text exports into in-memory tables.
//
// Tables are immutable once loaded for the process lifetime. Every value is
// kept as raw text; numeric interpretation is the caller's responsibility
// via the parse helpers in this package.
package datasource

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/carelens/pkg/metrics"
)

// Row maps a column name to its raw text value.
type Row map[string]string

// Table is an ordered sequence of rows read from one source. Columns are
// not guaranteed uniform across rows when sources are ragged.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Empty reports whether the table holds no rows. An absent source and a
// present-but-empty one are indistinguishable here on purpose.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether the table header carries the given column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// FloatField parses a numeric cell. A missing, blank, or malformed value
// yields nil, never zero; malformed non-blank values are counted as parse
// skips. Non-finite values are treated as absent as well.
func FloatField(row Row, column string) *float64 {
	raw, ok := row[column]
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		metrics.RecordParseSkip(column)
		return nil
	}
	return &v
}

// StringField returns the trimmed cell value and whether it was non-blank.
func StringField(row Row, column string) (string, bool) {
	raw, ok := row[column]
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
