package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/nyaacache/internal/model"
)

// Table is an ordered set of rows sharing one header.
// Cells are typed when the table is built, so writers only format.
type Table struct {
	columns []string
	rows    [][]model.Value
}

// NewTable builds a table of torrents with the given columns.
// Row order follows the torrents slice.
func NewTable(columns []string, torrents []model.Torrent) (*Table, error) {
	for _, c := range columns {
		if !slices.Contains(model.TorrentColumns, c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}

	rows := make([][]model.Value, 0, len(torrents))
	for _, t := range torrents {
		row := make([]model.Value, 0, len(columns))
		for _, c := range columns {
			v, _ := t.Value(c)
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	return &Table{
		columns: slices.Clone(columns),
		rows:    rows,
	}, nil
}

// Columns returns the header.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Rows returns the cells, one slice per row in header order.
func (t *Table) Rows() [][]model.Value {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Select returns a table holding only the named columns, in the requested
// order. An empty list returns t unchanged.
func (t *Table) Select(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return t, nil
	}

	index := make([]int, 0, len(columns))
	for _, c := range columns {
		i := slices.Index(t.columns, c)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownColumn, c, strings.Join(t.columns, ", "))
		}
		index = append(index, i)
	}

	rows := make([][]model.Value, 0, len(t.rows))
	for _, row := range t.rows {
		projected := make([]model.Value, 0, len(index))
		for _, i := range index {
			projected = append(projected, row[i])
		}
		rows = append(rows, projected)
	}

	return &Table{
		columns: slices.Clone(columns),
		rows:    rows,
	}, nil
}

// ParseColumnList splits a comma separated column list.
// Blank entries are dropped, so "" yields nil.
func ParseColumnList(s string) []string {
	var columns []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}
	return columns
}
