package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs a GitHub flavoured Markdown table.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the table. An empty table is reported in plain text.
func (w *MarkdownWriter) Write(table *Table) (int, error) {
	md := markdown.NewMarkdown(w.output)

	if table.Len() == 0 {
		md.PlainText("No torrents found.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, table.Len())
	for _, row := range table.rows {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, escapeCell(v.String()))
		}
		rows = append(rows, cells)
	}

	md.Table(markdown.TableSet{
		Header: table.Columns(),
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

// escapeCell keeps a value inside its table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
