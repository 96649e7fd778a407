package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeColumn is the column every dataset must carry.
const TimeColumn = "time"

// UnparseableMarker replaces time values that could not be parsed under
// PolicySubstitute.
const UnparseableMarker = "NaT"

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateIdentifier reports whether id is usable as a sink key. Identifiers
// end up in file and object names, so only letters, digits, '_' and '-' are
// allowed.
func ValidateIdentifier(id string) error {
	if !identifierRe.MatchString(id) {
		return fmt.Errorf("invalid dataset identifier %q", id)
	}
	return nil
}

// RawFileName is the raw sink file name for a dataset identifier.
func RawFileName(id string) string {
	return "dataset_" + id + ".txt"
}

// CleanedFileName is the cleaned sink file name for a dataset identifier.
func CleanedFileName(id string) string {
	return "cleaned_data_" + id + ".txt"
}

// Dataset is one configured unit of work: where to fetch from and how to key
// the artifacts.
type Dataset struct {
	ID  string
	URL string
}

// RawDataset is the unmodified response body of a fetch.
type RawDataset struct {
	Identifier  string
	SourceURL   string
	Body        string
	RetrievedAt time.Time
}

// CleanedDataset is the terminal artifact of a run.
type CleanedDataset struct {
	Identifier  string
	Table       Table
	Path        string
	Substituted int // rows whose time value was replaced by UnparseableMarker
}

// RunReport summarizes one successful run.
type RunReport struct {
	Identifier  string    `json:"identifier"`
	SourceURL   string    `json:"source_url,omitempty"`
	RawPath     string    `json:"raw_path"`
	CleanedPath string    `json:"cleaned_path"`
	Rows        int       `json:"rows"`
	Substituted int       `json:"substituted"`
	RetrievedAt time.Time `json:"retrieved_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Delimiter is the field separator of the cleaned sink.
type Delimiter rune

const (
	DelimiterComma Delimiter = ','
	DelimiterTab   Delimiter = '\t'
)

// ParseDelimiter accepts "comma"/"," and "tab"/"\t".
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "comma", ",":
		return DelimiterComma, nil
	case "tab", "\t", `\t`:
		return DelimiterTab, nil
	default:
		return 0, fmt.Errorf("unknown delimiter %q (want comma or tab)", s)
	}
}

func (d Delimiter) String() string {
	switch d {
	case DelimiterComma:
		return "comma"
	case DelimiterTab:
		return "tab"
	default:
		return fmt.Sprintf("Delimiter(%q)", rune(d))
	}
}

// TimestampPolicy decides how unparseable time values are handled.
type TimestampPolicy string

const (
	// PolicyAbort rejects the dataset on the first unparseable value.
	PolicyAbort TimestampPolicy = "abort"
	// PolicySubstitute replaces unparseable values with UnparseableMarker.
	PolicySubstitute TimestampPolicy = "substitute"
)

// ParseTimestampPolicy validates a policy name.
func ParseTimestampPolicy(s string) (TimestampPolicy, error) {
	switch p := TimestampPolicy(strings.ToLower(s)); p {
	case PolicyAbort, PolicySubstitute:
		return p, nil
	default:
		return "", fmt.Errorf("unknown timestamp policy %q (want abort or substitute)", s)
	}
}
