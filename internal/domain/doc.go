// Package domain models USGS earthquake catalog datasets and the rules for
// cleaning them.
//
// # Data Source
//
// Event records come from the USGS FDSN event web service, queried with
// format=csv and a start/end time window, e.g.
//
//	https://earthquake.usgs.gov/fdsnws/event/1/query?format=csv&starttime=2023-01-01&endtime=2023-01-02
//
// The response is a comma-separated table with a header row. Typical columns
// are time, latitude, longitude, depth, mag, magType, place and type; the only
// column this package depends on is "time".
//
// # Time format
//
// USGS emits ISO 8601 timestamps in UTC with millisecond precision:
//
//	"2023-01-01T23:55:03.487Z"
//
// Cleaning rewrites the column to the canonical layout DD-MM-YYYY HH:MM:SS:
//
//	"2023-01-01T23:55:03.487Z"  →  "01-01-2023 23:55:03"
//
// Values carrying a numeric offset are converted to UTC first. Fractional
// seconds are truncated. Values already in the canonical layout are accepted
// unchanged, so a cleaned file can be cleaned again.
//
// # Unparseable timestamps
//
// [TimestampPolicy] decides what happens to a value no layout accepts:
// [PolicyAbort] rejects the whole dataset with a [TimestampError];
// [PolicySubstitute] writes the sentinel [UnparseableMarker] ("NaT") in its
// place and counts the substitution.
//
// # Artifacts
//
// A run for identifier M1 leaves two files behind:
//
//	data/dataset_M1.txt          exact HTTP response body
//	output/cleaned_data_M1.txt   cleaned table, comma or tab delimited
//
// See [RawFileName] and [CleanedFileName].
package domain
