package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/carelens/pkg/logger"
	"github.com/okian/carelens/pkg/metrics"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithDelimiter sets the field delimiter. Defaults to comma.
func WithDelimiter(r rune) Option {
	return func(l *Loader) {
		if r != 0 {
			l.comma = r
		}
	}
}

// WithoutHeader declares the source headerless and assigns column names by
// field position. Fields beyond the given names are dropped.
func WithoutHeader(columns ...string) Option {
	return func(l *Loader) {
		if len(columns) > 0 {
			l.positional = columns
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// Loader reads a delimited text source into a Table.
type Loader struct {
	comma      rune
	positional []string
	log        logger.Logger
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{comma: ','}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the source at path. An absent source is not an error: it
// yields an empty Table and a warning so downstream components degrade to
// partial results instead of aborting.
func (l *Loader) Load(ctx context.Context, path string) (Table, error) {
	name := sourceName(path)
	table := Table{Name: name}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.RecordMissingSource()
			l.warn(ctx, "source file absent; continuing with empty table",
				logger.String("source", name),
				logger.String("path", path),
			)
			return table, nil
		}
		return table, fmt.Errorf("open source %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	columns := l.positional
	readHeader := columns == nil

	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A single unreadable line is dropped, not the whole table.
			l.warn(ctx, "skipping malformed line",
				logger.String("source", name),
				logger.Error(err),
			)
			continue
		}
		if readHeader {
			columns = make([]string, len(fields))
			for i, c := range fields {
				columns[i] = strings.TrimSpace(c)
			}
			readHeader = false
			continue
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if col == "" || i >= len(fields) {
				continue
			}
			row[col] = fields[i]
		}
		table.Rows = append(table.Rows, row)
	}

	table.Columns = columns
	metrics.RecordTableLoaded(name)
	metrics.RecordRowsLoaded(name, len(table.Rows))
	if l.log != nil {
		l.log.Info(ctx, "loaded source",
			logger.String("source", name),
			logger.Int("rows", len(table.Rows)),
			logger.Int("columns", len(columns)),
		)
	}
	return table, nil
}

func (l *Loader) warn(ctx context.Context, msg string, fields ...logger.Field) {
	if l.log != nil {
		l.log.Warn(ctx, msg, fields...)
	}
}

// sourceName reduces a path to its logical source identifier.
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
