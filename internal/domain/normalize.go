package domain

// NormalizeTime rewrites the "time" column of t into CanonicalLayout and
// returns the rewritten copy plus the number of substituted values. t is not
// modified.
//
// A table without a "time" column yields a *SchemaError. Under PolicyAbort the
// first unparseable value yields a *TimestampError; under PolicySubstitute it
// is replaced by UnparseableMarker.
func NormalizeTime(t Table, policy TimestampPolicy) (Table, int, error) {
	idx := t.ColumnIndex(TimeColumn)
	if idx < 0 {
		return Table{}, 0, &SchemaError{Field: TimeColumn}
	}

	out := t.Clone()
	substituted := 0
	for i, row := range out.Rows {
		ts, err := ParseTimestamp(row[idx])
		if err != nil {
			if policy != PolicySubstitute {
				return Table{}, 0, &TimestampError{Row: i, Value: row[idx]}
			}
			row[idx] = UnparseableMarker
			substituted++
			continue
		}
		row[idx] = FormatCanonical(ts)
	}
	return out, substituted, nil
}

// Clean parses raw comma-delimited text and normalizes its time column. It
// never touches a sink.
func Clean(rawText string, policy TimestampPolicy) (Table, int, error) {
	t, err := ParseTable(rawText)
	if err != nil {
		return Table{}, 0, err
	}
	return NormalizeTime(t, policy)
}
