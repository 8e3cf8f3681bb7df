// Package roster builds the canonical deduplicated subject identifier set
// from heterogeneous tabular sources.
package roster

import (
	"sort"
	"strings"

	"github.com/okian/carelens/internal/datasource"
)

// Default placeholder words that indicate a header line accidentally read
// as data. Matched case-insensitively.
var defaultPlaceholders = []string{"subject_id", "subjectid", "id"}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithPlaceholders replaces the set of placeholder words discarded during
// extraction.
func WithPlaceholders(words ...string) Option {
	return func(b *Builder) {
		b.placeholders = make(map[string]struct{}, len(words))
		for _, w := range words {
			b.placeholders[strings.ToLower(w)] = struct{}{}
		}
	}
}

// Builder unions subject identifiers found across all sources into one
// canonical set. Rebuilding from the same inputs always yields the same
// sorted result.
type Builder struct {
	seen         map[string]struct{}
	placeholders map[string]struct{}
}

// NewBuilder creates a roster builder with configuration options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		seen: make(map[string]struct{}),
	}
	WithPlaceholders(defaultPlaceholders...)(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddTable extracts the identifier column from every row of the table.
// Blank and placeholder values are discarded.
func (b *Builder) AddTable(t datasource.Table, idColumn string) {
	for _, row := range t.Rows {
		id, ok := datasource.StringField(row, idColumn)
		if !ok {
			continue
		}
		if _, placeholder := b.placeholders[strings.ToLower(id)]; placeholder {
			continue
		}
		b.seen[id] = struct{}{}
	}
}

// AddID inserts a single identifier, applying the same trim and placeholder
// rules as AddTable.
func (b *Builder) AddID(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if _, placeholder := b.placeholders[strings.ToLower(id)]; placeholder {
		return
	}
	b.seen[id] = struct{}{}
}

// Contains reports whether an identifier is already in the working set.
func (b *Builder) Contains(id string) bool {
	_, ok := b.seen[strings.TrimSpace(id)]
	return ok
}

// Build returns the canonical identifier set, sorted lexicographically for
// deterministic iteration. The working set is not consumed.
func (b *Builder) Build() []string {
	ids := make([]string, 0, len(b.seen))
	for id := range b.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
