package domain

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const utf8BOM = "\uFEFF"

// Row holds one record's values in the owning Table's column order.
type Row []string

// Table is a parsed delimited document. Every Row has exactly len(Columns)
// values and column names are unique.
type Table struct {
	Columns []string
	Rows    []Row
}

// ColumnIndex returns the position of name, or -1 if the table lacks it.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the named column of row i, and false if the column is absent.
func (t Table) Value(i int, column string) (string, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return "", false
	}
	return t.Rows[i][idx], true
}

// Record returns row i as a column-keyed map.
func (t Table) Record(i int) map[string]string {
	rec := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		rec[c] = t.Rows[i][j]
	}
	return rec
}

// Clone returns a deep copy so callers can rewrite values without touching t.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}

// ParseTable parses comma-delimited text whose first record is the header.
func ParseTable(text string) (Table, error) {
	return ParseTableDelimited(text, DelimiterComma)
}

// ParseTableDelimited parses text using the given field separator. Rows with
// a field count different from the header, invalid UTF-8, an empty document
// and duplicate or blank column names all yield a *ParseError.
func ParseTableDelimited(text string, delim Delimiter) (Table, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	if !utf8.ValidString(text) {
		return Table{}, &ParseError{Line: invalidUTF8Line(text), Err: errors.New("invalid UTF-8")}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = rune(delim)
	r.FieldsPerRecord = 0 // header fixes the count

	records, err := r.ReadAll()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return Table{}, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
		}
		return Table{}, &ParseError{Err: err}
	}
	if len(records) == 0 {
		return Table{}, &ParseError{Err: errors.New("empty document")}
	}

	header := records[0]
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if name == "" {
			return Table{}, &ParseError{Line: 1, Err: errors.New("blank column name")}
		}
		if _, dup := seen[name]; dup {
			return Table{}, &ParseError{Line: 1, Err: fmt.Errorf("duplicate column %q", name)}
		}
		seen[name] = struct{}{}
	}

	t := Table{Columns: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, Row(rec))
	}
	return t, nil
}

// WriteTable encodes t with the header first. Fields are quoted only when they
// contain the delimiter, a quote, a line break or leading whitespace.
func WriteTable(w io.Writer, t Table, delim Delimiter) error {
	cw := csv.NewWriter(w)
	cw.Comma = rune(delim)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeTable is WriteTable into memory.
func EncodeTable(t Table, delim Delimiter) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, t, delim); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func invalidUTF8Line(text string) int {
	line := 1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return 0
}
