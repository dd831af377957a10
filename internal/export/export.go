// Package export flattens cases into semicolon-separated text tables: one row
// per (case, step) pair, ordered by collection order and then step sequence.
//
// Text columns are always quoted with embedded quotes doubled, while ids,
// enums and numbers are written bare. encoding/csv quotes only when needed,
// so rows are formatted here.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

// Format selects the table layout.
type Format string

// Supported formats.
const (
	// FormatStandard repeats case fields on every row.
	FormatStandard Format = "standard"
	// FormatExternal targets test-management importers that group rows by Name.
	FormatExternal Format = "external"
)

const (
	delimiter = ";"
	bom       = "\ufeff"

	// timestampLayout matches ISO-8601 with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	return f == FormatStandard || f == FormatExternal
}

// label is the capitalized name used in file names.
func (f Format) label() string {
	if f == FormatExternal {
		return "External"
	}
	return "Standard"
}

// Cell is one field of a row.
type Cell struct {
	Value  string
	Quoted bool
}

func quoted(v string) Cell { return Cell{Value: v, Quoted: true} }
func bare(v string) Cell   { return Cell{Value: v} }

// Table is a projected export.
type Table struct {
	Header []string
	Rows   [][]Cell
}

// Values returns the raw cell values, without quoting.
func (t *Table) Values() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Value
		}
	}
	return out
}

// Project builds the table for format f.
func Project(f Format, cases []domain.TestCase) (*Table, error) {
	switch f {
	case FormatStandard:
		return Standard(cases), nil
	case FormatExternal:
		return External(cases), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// WriteTo writes the BOM, the header and every row, separated by newlines.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, strings.Join(t.Header, delimiter))
	for _, row := range t.Rows {
		fields := make([]string, len(row))
		for i, c := range row {
			fields[i] = encode(c)
		}
		lines = append(lines, strings.Join(fields, delimiter))
	}

	if _, err := bw.WriteString(bom + strings.Join(lines, "\n")); err != nil {
		return cw.n, err
	}
	err := bw.Flush()
	return cw.n, err
}

// FileName returns TestMo_<Standard|External>_Export_<YYYY-MM-DD>.csv.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("%s%s_Export_%s.csv", constants.ExportFilePrefix, f.label(), now.Format(constants.ExportDateLayout))
}

func encode(c Cell) string {
	if !c.Quoted {
		return c.Value
	}
	return `"` + strings.ReplaceAll(c.Value, `"`, `""`) + `"`
}

func orderedSteps(tc *domain.TestCase) []domain.TestStep {
	c := domain.TestCase{Steps: domain.CloneSteps(tc.Steps)}
	c.SortSteps()
	return c.Steps
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
