package report

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/nyaacache/internal/model"
)

// createTestTable creates a table with two sample torrents.
func createTestTable(t *testing.T) *Table {
	t.Helper()

	torrents := []model.Torrent{
		{
			ID:       200,
			Name:     "[Group] Show - 02 (1080p)",
			Magnet:   "magnet:?xt=urn:btih:bbb&dn=Show",
			Category: "Anime - English-translated",
			Size:     "1.4 GiB",
			Uploaded: 1_700_000_200,
			Created:  1_700_100_000,
		},
		{
			ID:       100,
			Name:     "Show | Batch",
			Magnet:   "magnet:?xt=urn:btih:aaa",
			Category: "Anime - Raw",
			Size:     "700.0 MiB",
			Uploaded: 1_700_000_100,
			Created:  1_700_100_000,
		},
	}

	table, err := NewTable(model.TorrentColumns, torrents)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func TestNewTable(t *testing.T) {
	t.Parallel()

	t.Run("rows follow input order", func(t *testing.T) {
		t.Parallel()

		table := createTestTable(t)
		if table.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", table.Len())
		}
		if got := table.Rows()[0][0]; !got.IsInt() || got.Int() != 200 {
			t.Errorf("first id = %v, want 200", got)
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		t.Parallel()

		_, err := NewTable([]string{"id", "seeders"}, nil)
		if !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("NewTable() error = %v, want ErrUnknownColumn", err)
		}
	})
}

func TestTableSelect(t *testing.T) {
	t.Parallel()

	t.Run("projects in requested order", func(t *testing.T) {
		t.Parallel()

		table, err := createTestTable(t).Select([]string{"size", "id"})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if !slices.Equal(table.Columns(), []string{"size", "id"}) {
			t.Errorf("Columns() = %v", table.Columns())
		}
		want := [][]string{{"1.4 GiB", "200"}, {"700.0 MiB", "100"}}
		for i, row := range table.Rows() {
			got := []string{row[0].String(), row[1].String()}
			if !slices.Equal(got, want[i]) {
				t.Errorf("row %d = %v, want %v", i, got, want[i])
			}
		}
	})

	t.Run("empty selection keeps every column", func(t *testing.T) {
		t.Parallel()

		original := createTestTable(t)
		table, err := original.Select(nil)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if !slices.Equal(table.Columns(), model.TorrentColumns) {
			t.Errorf("Columns() = %v", table.Columns())
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		t.Parallel()

		_, err := createTestTable(t).Select([]string{"name", "leechers"})
		if !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("Select() error = %v, want ErrUnknownColumn", err)
		}
	})
}

func TestParseColumnList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "id", want: []string{"id"}},
		{in: " id, name ,,magnet ", want: []string{"id", "name", "magnet"}},
	}
	for _, tt := range tests {
		if got := ParseColumnList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("ParseColumnList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"json", "TSV", " binary ", "Markdown"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", name, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnknownFormat", err)
	}
	if _, err := NewWriter(Format("yaml"), io.Discard); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("NewWriter(yaml) error = %v, want ErrUnknownFormat", err)
	}
}

// TestJSONWriter tests line delimited JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("one object per row with ordered keys", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf).Write(createTestTable(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, buffer has %d", n, buf.Len())
		}

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
		}

		want := `{"id":200,"name":"[Group] Show - 02 (1080p)","magnet":"magnet:?xt=urn:btih:bbb&dn=Show","category":"Anime - English-translated","size":"1.4 GiB","uploaded":1700000200,"created":1700100000}`
		if lines[0] != want {
			t.Errorf("line 0 =\n%s\nwant\n%s", lines[0], want)
		}

		var decoded map[string]any
		if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
			t.Fatalf("line 1 is not JSON: %v", err)
		}
		if decoded["name"] != "Show | Batch" {
			t.Errorf("name = %v", decoded["name"])
		}
	})

	t.Run("empty table writes nothing", func(t *testing.T) {
		t.Parallel()

		table, err := NewTable(model.TorrentColumns, nil)
		if err != nil {
			t.Fatalf("NewTable() error = %v", err)
		}
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(table); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}

// TestTSVWriter tests tab separated output.
func TestTSVWriter(t *testing.T) {
	t.Parallel()

	table, err := createTestTable(t).Select([]string{"id", "name", "uploaded"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	var buf bytes.Buffer
	if _, err := NewTSVWriter(&buf).Write(table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "id\tname\tuploaded\n" +
		"200\t[Group] Show - 02 (1080p)\t1700000200\n" +
		"100\tShow | Batch\t1700000100\n"
	if buf.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", buf.String(), want)
	}
}

// TestBinaryWriter tests length prefixed frames.
func TestBinaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("exact bytes", func(t *testing.T) {
		t.Parallel()

		table, err := NewTable([]string{"id", "size"}, []model.Torrent{{ID: 7, Size: "1 GiB"}})
		if err != nil {
			t.Fatalf("NewTable() error = %v", err)
		}

		var buf bytes.Buffer
		n, err := NewBinaryWriter(&buf).Write(table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var want []byte
		for _, frame := range [][]string{{"id", "size"}, {"7", "1 GiB"}} {
			for _, f := range frame {
				want = binary.BigEndian.AppendUint32(want, uint32(len(f)))
				want = append(want, f...)
			}
			want = append(want, 0x0a)
		}
		if !bytes.Equal(buf.Bytes(), want) {
			t.Errorf("output = %v, want %v", buf.Bytes(), want)
		}
		if n != len(want) {
			t.Errorf("returned %d bytes, want %d", n, len(want))
		}
	})

	t.Run("frames read back", func(t *testing.T) {
		t.Parallel()

		table := createTestTable(t)
		var buf bytes.Buffer
		if _, err := NewBinaryWriter(&buf).Write(table); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		r := bufio.NewReader(&buf)
		header, err := ReadBinaryRow(r, len(model.TorrentColumns))
		if err != nil {
			t.Fatalf("ReadBinaryRow(header) error = %v", err)
		}
		if !slices.Equal(header, model.TorrentColumns) {
			t.Errorf("header = %v", header)
		}

		for i, row := range table.Rows() {
			got, err := ReadBinaryRow(r, len(model.TorrentColumns))
			if err != nil {
				t.Fatalf("ReadBinaryRow(row %d) error = %v", i, err)
			}
			for j, v := range row {
				if got[j] != v.String() {
					t.Errorf("row %d field %d = %q, want %q", i, j, got[j], v.String())
				}
			}
		}

		if _, err := ReadBinaryRow(r, len(model.TorrentColumns)); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF after last frame, got %v", err)
		}
	})

	t.Run("bad terminator", func(t *testing.T) {
		t.Parallel()

		frame := binary.BigEndian.AppendUint32(nil, 1)
		frame = append(frame, 'x', 0x00)
		if _, err := ReadBinaryRow(bytes.NewReader(frame), 1); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("ReadBinaryRow() error = %v, want ErrMalformedFrame", err)
		}
	})

	t.Run("multibyte length counts bytes", func(t *testing.T) {
		t.Parallel()

		table, err := NewTable([]string{"name"}, []model.Torrent{{Name: "進撃"}})
		if err != nil {
			t.Fatalf("NewTable() error = %v", err)
		}
		var buf bytes.Buffer
		if _, err := NewBinaryWriter(&buf).Write(table); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data := buf.Bytes()
		rowStart := 4 + len("name") + 1
		if got := binary.BigEndian.Uint32(data[rowStart : rowStart+4]); got != 6 {
			t.Errorf("length prefix = %d, want 6", got)
		}
	})
}

// TestMarkdownWriter tests the Markdown table output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and cells", func(t *testing.T) {
		t.Parallel()

		table, err := createTestTable(t).Select([]string{"id", "name", "size"})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(table); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"id", "name", "size", "200", "[Group] Show - 02 (1080p)", "Batch", "700.0 MiB"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("empty table", func(t *testing.T) {
		t.Parallel()

		table, err := NewTable([]string{"id"}, nil)
		if err != nil {
			t.Fatalf("NewTable() error = %v", err)
		}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(table); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No torrents found") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}
