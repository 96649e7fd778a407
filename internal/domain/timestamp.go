package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CanonicalLayout is the time layout of the cleaned "time" column:
// DD-MM-YYYY HH:MM:SS.
const CanonicalLayout = "02-01-2006 15:04:05"

var canonicalRe = regexp.MustCompile(`^\d{2}-\d{2}-\d{4} \d{2}:\d{2}:\d{2}$`)

// timestampLayouts are tried in order. Fractional seconds are accepted after
// the seconds field by time.Parse even when the layout omits them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	CanonicalLayout,
}

var errEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp converts a textual time value into a UTC time. Values
// without zone information are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no known layout matches %q", s)
}

// FormatCanonical renders t in CanonicalLayout after converting it to UTC.
func FormatCanonical(t time.Time) string {
	return t.UTC().Format(CanonicalLayout)
}

// IsCanonical reports whether s is already in CanonicalLayout.
func IsCanonical(s string) bool {
	return canonicalRe.MatchString(s)
}
