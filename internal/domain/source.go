package domain

import (
	"fmt"
	"net/url"
)

// DefaultSourceURL is the USGS FDSN event query endpoint.
const DefaultSourceURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// QueryURL builds a CSV query for events between start and end (inclusive of
// start, exclusive of end, as interpreted by the FDSN service). Existing query
// parameters on base are kept.
func QueryURL(base, start, end string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("source url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("source url %q: missing host", base)
	}
	if _, err := ParseTimestamp(start); err != nil {
		return "", fmt.Errorf("start time: %w", err)
	}
	if _, err := ParseTimestamp(end); err != nil {
		return "", fmt.Errorf("end time: %w", err)
	}

	q := u.Query()
	q.Set("format", "csv")
	q.Set("starttime", start)
	q.Set("endtime", end)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
