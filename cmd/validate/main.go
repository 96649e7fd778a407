// Command validate checks a raw/cleaned artifact pair written by the etl
// command. It verifies that the header and row count match, that every
// non-time value passed through unchanged and that every time value is either
// the canonical rendering of the raw value or the unparseable marker.
//
// Usage:
//
//	go run ./cmd/validate -id M1 -raw-dir data -clean-dir output -delimiter comma
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

// maxReported caps the errors printed per phase.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	id := flag.String("id", "", "dataset identifier")
	rawDir := flag.String("raw-dir", "data", "directory containing raw artifacts")
	cleanDir := flag.String("clean-dir", "output", "directory containing cleaned artifacts")
	delimiter := flag.String("delimiter", "comma", "delimiter of the cleaned artifact (comma or tab)")
	flag.Parse()

	if *id == "" {
		flag.Usage()
		os.Exit(1)
	}
	delim, err := domain.ParseDelimiter(*delimiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	rawPath := filepath.Join(*rawDir, domain.RawFileName(*id))
	cleanedPath := filepath.Join(*cleanDir, domain.CleanedFileName(*id))
	if code := run(os.Stdout, rawPath, cleanedPath, delim); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, rawPath, cleanedPath string, delim domain.Delimiter) int {
	fmt.Fprintln(out, "=== Quake Dataset Validation ===")
	fmt.Fprintln(out)

	raw, err := loadTable(rawPath, domain.DelimiterComma)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load raw artifact: %v\n", err)
		return 1
	}
	cleaned, err := loadTable(cleanedPath, delim)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load cleaned artifact: %v\n", err)
		return 1
	}
	if raw.ColumnIndex(domain.TimeColumn) < 0 {
		fmt.Fprintf(out, "FATAL: raw artifact: %v\n", &domain.SchemaError{Field: domain.TimeColumn})
		return 1
	}

	phases := []*phase{
		validateHeader(raw, cleaned),
		validateRowCount(raw, cleaned),
		validatePassthrough(raw, cleaned),
		validateTimeFormat(cleaned),
		validateTimeValues(raw, cleaned),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-34s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d raw, %d cleaned\n", len(raw.Rows), len(cleaned.Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(out, "  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadTable(path string, delim domain.Delimiter) (domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Table{}, err
	}
	return domain.ParseTableDelimited(string(data), delim)
}

// ── Phases ──

func validateHeader(raw, cleaned domain.Table) *phase {
	p := &phase{name: "Header parity"}
	if len(raw.Columns) != len(cleaned.Columns) {
		p.errorf("column count: raw=%d cleaned=%d", len(raw.Columns), len(cleaned.Columns))
		return p
	}
	for i := range raw.Columns {
		if raw.Columns[i] != cleaned.Columns[i] {
			p.errorf("column %d: raw=%q cleaned=%q", i, raw.Columns[i], cleaned.Columns[i])
		}
	}
	return p
}

func validateRowCount(raw, cleaned domain.Table) *phase {
	p := &phase{name: "Row count parity"}
	if len(raw.Rows) != len(cleaned.Rows) {
		p.errorf("raw=%d cleaned=%d", len(raw.Rows), len(cleaned.Rows))
	}
	return p
}

func validatePassthrough(raw, cleaned domain.Table) *phase {
	p := &phase{name: "Non-time values unchanged"}
	for i := 0; i < min(len(raw.Rows), len(cleaned.Rows)); i++ {
		for _, col := range raw.Columns {
			if col == domain.TimeColumn {
				continue
			}
			want, _ := raw.Value(i, col)
			got, ok := cleaned.Value(i, col)
			if !ok {
				p.errorf("row %d: column %q missing from cleaned artifact", i+1, col)
				continue
			}
			if want != got {
				p.errorf("row %d: %s: raw=%q cleaned=%q", i+1, col, want, got)
			}
		}
	}
	return p
}

func validateTimeFormat(cleaned domain.Table) *phase {
	p := &phase{name: "Time values canonical"}
	if cleaned.ColumnIndex(domain.TimeColumn) < 0 {
		p.errorf("cleaned artifact has no %s column", domain.TimeColumn)
		return p
	}
	for i := range cleaned.Rows {
		v, _ := cleaned.Value(i, domain.TimeColumn)
		if v != domain.UnparseableMarker && !domain.IsCanonical(v) {
			p.errorf("row %d: %q is not DD-MM-YYYY HH:MM:SS", i+1, v)
		}
	}
	return p
}

func validateTimeValues(raw, cleaned domain.Table) *phase {
	p := &phase{name: "Time values match source"}
	if cleaned.ColumnIndex(domain.TimeColumn) < 0 {
		return p
	}
	for i := 0; i < min(len(raw.Rows), len(cleaned.Rows)); i++ {
		src, _ := raw.Value(i, domain.TimeColumn)
		got, _ := cleaned.Value(i, domain.TimeColumn)

		want := domain.UnparseableMarker
		if ts, err := domain.ParseTimestamp(src); err == nil {
			want = domain.FormatCanonical(ts)
		}
		if got != want {
			p.errorf("row %d: raw=%q want=%q cleaned=%q", i+1, src, want, got)
		}
	}
	return p
}
