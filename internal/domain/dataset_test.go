package domain

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	for _, id := range []string{"M1", "m_2", "team-3", "2023"} {
		assert.NoError(t, ValidateIdentifier(id), id)
	}
	for _, id := range []string{"", "../etc", "a b", "x/y", "é"} {
		assert.Error(t, ValidateIdentifier(id), id)
	}
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "dataset_M1.txt", RawFileName("M1"))
	assert.Equal(t, "cleaned_data_M1.txt", CleanedFileName("M1"))
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want Delimiter
	}{
		{"comma", DelimiterComma},
		{",", DelimiterComma},
		{"TAB", DelimiterTab},
		{`\t`, DelimiterTab},
		{"\t", DelimiterTab},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDelimiter("semicolon")
	assert.Error(t, err)

	assert.Equal(t, "comma", DelimiterComma.String())
	assert.Equal(t, "tab", DelimiterTab.String())
}

func TestParseTimestampPolicy(t *testing.T) {
	p, err := ParseTimestampPolicy("Abort")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	p, err = ParseTimestampPolicy("substitute")
	require.NoError(t, err)
	assert.Equal(t, PolicySubstitute, p)

	_, err = ParseTimestampPolicy("ignore")
	assert.Error(t, err)
}

func TestQueryURL(t *testing.T) {
	got, err := QueryURL(DefaultSourceURL, "2023-01-01", "2023-01-02")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "earthquake.usgs.gov", u.Host)
	assert.Equal(t, "csv", u.Query().Get("format"))
	assert.Equal(t, "2023-01-01", u.Query().Get("starttime"))
	assert.Equal(t, "2023-01-02", u.Query().Get("endtime"))

	got, err = QueryURL("http://localhost:8080/query?minmagnitude=2.5", "2023-01-01", "2023-01-02")
	require.NoError(t, err)
	u, err = url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "2.5", u.Query().Get("minmagnitude"))

	_, err = QueryURL("ftp://example.com/q", "2023-01-01", "2023-01-02")
	assert.Error(t, err)
	_, err = QueryURL(DefaultSourceURL, "soon", "2023-01-02")
	assert.Error(t, err)
}

func TestErrorClassification(t *testing.T) {
	fetchErr := &FetchError{Kind: FetchHTTPStatus, URL: "http://x", StatusCode: 404}
	wrapped := fmt.Errorf("run M1: %w", fetchErr)

	assert.True(t, IsTransportError(wrapped))
	assert.False(t, IsDataError(wrapped))
	assert.Equal(t, "fetch http://x: unexpected status 404", fetchErr.Error())

	netErr := &FetchError{Kind: FetchNetwork, URL: "http://x", Err: errors.New("connection refused")}
	assert.Contains(t, netErr.Error(), "connection refused")
	assert.Equal(t, "network", netErr.Kind.String())

	assert.True(t, IsDataError(&SchemaError{Field: TimeColumn}))
	assert.True(t, IsDataError(&TimestampError{Row: 2, Value: "x"}))

	cause := errors.New("disk full")
	pe := &PersistenceError{Path: "output/cleaned_data_M1.txt", Err: cause}
	assert.ErrorIs(t, pe, cause)
	assert.False(t, IsDataError(pe))
	assert.False(t, IsTransportError(pe))
}

func TestNowUsesClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), Now())
}
