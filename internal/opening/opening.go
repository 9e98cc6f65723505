// Package opening names positions after the opening they belong to, using
// ECO tables keyed by piece placement.
package opening

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessrules/internal/board"
)

// TSV columns: eco, name, pgn, uci, epd.
const (
	colName = 1
	colEPD  = 4
)

// Table maps a piece placement string to an opening name.
type Table struct {
	names map[string]string
}

// New creates an empty table.
func New() *Table {
	return &Table{
		names: make(map[string]string),
	}
}

// FromMap creates a table from placement/name pairs, as returned by
// storage.LoadOpenings.
func FromMap(names map[string]string) *Table {
	t := New()
	t.Merge(names)
	return t
}

// LoadTSV reads an ECO table with a header row and returns the number of
// entries read. Later entries for the same placement replace earlier ones.
func (t *Table) LoadTSV(r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read header")
	}

	count := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, errors.Wrap(err, "read opening")
		}
		if len(record) <= colEPD {
			line, _ := cr.FieldPos(0)
			return count, errors.Errorf("line %d: want at least %d columns, got %d", line, colEPD+1, len(record))
		}
		fields := strings.Fields(record[colEPD])
		if len(fields) == 0 {
			continue
		}
		t.names[fields[0]] = record[colName]
		count++
	}
	return count, nil
}

// LoadFile loads one TSV file.
func (t *Table) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open opening table")
	}
	defer f.Close()

	n, err := t.LoadTSV(f)
	if err != nil {
		return n, errors.Wrapf(err, "load %s", path)
	}
	return n, nil
}

// LoadDir loads every *.tsv file in dir in name order and returns the total
// number of entries read.
func (t *Table) LoadDir(dir string, logger zerolog.Logger) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return 0, errors.Wrap(err, "list opening tables")
	}
	sort.Strings(paths)

	total := 0
	for _, path := range paths {
		n, err := t.LoadFile(path)
		if err != nil {
			return total, err
		}
		logger.Info().Str("file", filepath.Base(path)).Int("openings", n).Msg("opening table loaded")
		total += n
	}
	return total, nil
}

// Lookup returns the name of the opening the board's placement belongs to.
func (t *Table) Lookup(b *board.Board) (string, bool) {
	return t.LookupPlacement(b.Placement())
}

// LookupPlacement returns the name stored for a placement string.
func (t *Table) LookupPlacement(placement string) (string, bool) {
	name, ok := t.names[placement]
	return name, ok
}

// Merge adds placement/name pairs, replacing existing names.
func (t *Table) Merge(names map[string]string) {
	for placement, name := range names {
		t.names[placement] = name
	}
}

// Names returns a copy of the table contents.
func (t *Table) Names() map[string]string {
	out := make(map[string]string, len(t.names))
	for k, v := range t.names {
		out[k] = v
	}
	return out
}

// Size returns the number of placements in the table.
func (t *Table) Size() int {
	return len(t.names)
}
