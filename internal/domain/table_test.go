package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUSGSCSV = `time,latitude,longitude,depth,mag,magType,place,type
2023-01-01T23:55:03.487Z,19.2183333,-155.4048333,33.35,2.03,md,"8 km SW of Volcano, Hawaii",earthquake
2023-01-01T23:40:21.110Z,38.8236667,-122.8133333,1.79,0.78,md,"7km NW of The Geysers, CA",earthquake
`

func TestParseTable(t *testing.T) {
	t.Run("usgs csv", func(t *testing.T) {
		table, err := ParseTable(testUSGSCSV)
		require.NoError(t, err)

		assert.Equal(t, []string{"time", "latitude", "longitude", "depth", "mag", "magType", "place", "type"}, table.Columns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "8 km SW of Volcano, Hawaii", table.Rows[0][6])

		v, ok := table.Value(1, "mag")
		assert.True(t, ok)
		assert.Equal(t, "0.78", v)

		rec := table.Record(0)
		assert.Equal(t, "2023-01-01T23:55:03.487Z", rec["time"])
		assert.Equal(t, "earthquake", rec["type"])
	})

	t.Run("header only", func(t *testing.T) {
		table, err := ParseTable("time,mag\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"time", "mag"}, table.Columns)
		assert.Empty(t, table.Rows)
	})

	t.Run("strips BOM", func(t *testing.T) {
		table, err := ParseTable("\uFEFFtime,mag\n2023-01-01,1\n")
		require.NoError(t, err)
		assert.Equal(t, "time", table.Columns[0])
	})

	t.Run("tab delimited", func(t *testing.T) {
		table, err := ParseTableDelimited("time\tplace\n01-01-2023 00:00:00\tNorth, CA\n", DelimiterTab)
		require.NoError(t, err)
		assert.Equal(t, "North, CA", table.Rows[0][1])
	})
}

func TestParseTable_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{"inconsistent field count", "time,mag\n2023-01-01,4.5\n2023-01-02\n", 3, "wrong number of fields"},
		{"extra field", "time,mag\n2023-01-01,4.5,extra\n", 2, "wrong number of fields"},
		{"empty document", "", 0, "empty document"},
		{"duplicate column", "time,time\n1,2\n", 1, "duplicate column"},
		{"blank column", "time,\n1,2\n", 1, "blank column"},
		{"invalid utf8", "time,mag\n2023-01-01,\xff\n", 2, "invalid UTF-8"},
		{"bare quote", "time,mag\n2023-01-01,4\"5\n", 2, "bare"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(tt.input)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantLine, pe.Line)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestWriteTable(t *testing.T) {
	table := Table{
		Columns: []string{"time", "magnitude", "place"},
		Rows: []Row{
			{"01-01-2023 00:00:00", "4.5", "Volcano, Hawaii"},
		},
	}

	t.Run("comma", func(t *testing.T) {
		var sb strings.Builder
		require.NoError(t, WriteTable(&sb, table, DelimiterComma))
		assert.Equal(t, "time,magnitude,place\n01-01-2023 00:00:00,4.5,\"Volcano, Hawaii\"\n", sb.String())
	})

	t.Run("tab", func(t *testing.T) {
		data, err := EncodeTable(table, DelimiterTab)
		require.NoError(t, err)
		assert.Equal(t, "time\tmagnitude\tplace\n01-01-2023 00:00:00\t4.5\tVolcano, Hawaii\n", string(data))
	})

	t.Run("round trip", func(t *testing.T) {
		for _, d := range []Delimiter{DelimiterComma, DelimiterTab} {
			data, err := EncodeTable(table, d)
			require.NoError(t, err)
			back, err := ParseTableDelimited(string(data), d)
			require.NoError(t, err)
			if diff := cmp.Diff(table, back); diff != "" {
				t.Fatalf("%s round trip mismatch (-want +got):\n%s", d, diff)
			}
		}
	})
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := Table{Columns: []string{"time"}, Rows: []Row{{"a"}}}
	c := orig.Clone()
	c.Rows[0][0] = "b"
	c.Columns[0] = "x"
	assert.Equal(t, "a", orig.Rows[0][0])
	assert.Equal(t, "time", orig.Columns[0])
}

func TestParseErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ParseError{Line: 4, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "parse dataset: line 4: boom", err.Error())
}
