package stream

import (
	"encoding/csv"
	"github.com/pkg/errors"
	"io"
)

// NullCell is written for a column that a row does not have.
const NullCell = ""

// Table accumulates flattened rows. Its columns are the union of every
// row's attribute names in the order they were first seen.
type Table struct {
	columns []string
	index   map[string]int
	rows    []map[string]string
}

func NewTable() *Table {
	return &Table{index: map[string]int{}}
}

// Append coerces every value of im to text and adds it as the next row.
func (t *Table) Append(im Image) error {
	row := make(map[string]string, len(im))
	for _, attr := range im {
		text, err := Text(attr.Value)
		if err != nil {
			return errors.Wrapf(err, "attribute %q (%s)", attr.Name, attr.Tag)
		}

		if _, ok := t.index[attr.Name]; !ok {
			t.index[attr.Name] = len(t.columns)
			t.columns = append(t.columns, attr.Name)
		}
		row[attr.Name] = text
	}

	t.rows = append(t.rows, row)
	return nil
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Rows returns every row laid out against Columns.
func (t *Table) Rows() [][]string {
	out := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, t.record(row))
	}
	return out
}

func (t *Table) record(row map[string]string) []string {
	rec := make([]string, len(t.columns))
	for i, col := range t.columns {
		if val, ok := row[col]; ok {
			rec[i] = val
		} else {
			rec[i] = NullCell
		}
	}
	return rec
}

// WriteCSV writes a header row followed by one line per row. A line that
// would hold a single empty field (or none) is written as "" so readers do
// not skip it as blank.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	err := writeRecord(w, cw, t.columns)
	if err != nil {
		return err
	}

	for _, row := range t.rows {
		err = writeRecord(w, cw, t.record(row))
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return errors.WithStack(cw.Error())
}

func writeRecord(w io.Writer, cw *csv.Writer, rec []string) error {
	if len(rec) > 1 || (len(rec) == 1 && len(rec[0]) > 0) {
		return errors.WithStack(cw.Write(rec))
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WithStack(err)
	}

	_, err := io.WriteString(w, "\"\"\n")
	return errors.WithStack(err)
}
