// Command genmock writes a synthetic USGS catalog CSV export for local runs
// and fixture generation. Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/query.csv -rows 200 -invalid-every 50
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

var columns = []string{
	"time", "latitude", "longitude", "depth", "mag", "magType", "nst", "gap",
	"dmin", "rms", "net", "id", "updated", "place", "type", "horizontalError",
	"depthError", "magError", "magNst", "status", "locationSource", "magSource",
}

type region struct {
	name     string
	net      string
	lat, lon float64
}

var regions = []region{
	{name: "Volcano, Hawaii", net: "hv", lat: 19.42, lon: -155.28},
	{name: "The Geysers, CA", net: "nc", lat: 38.79, lon: -122.76},
	{name: "Anza, CA", net: "ci", lat: 33.55, lon: -116.67},
	{name: "Pahala, Hawaii", net: "hv", lat: 19.20, lon: -155.48},
	{name: "Cantwell, Alaska", net: "ak", lat: 63.39, lon: -148.95},
}

var directions = []string{"N", "NNE", "NE", "E", "SE", "S", "SW", "W", "NW"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated CSV")
	rows := flag.Int("rows", 100, "number of events")
	seed := flag.Uint64("seed", 1, "random seed")
	start := flag.String("start", "2023-01-01", "first event day (YYYY-MM-DD)")
	invalidEvery := flag.Int("invalid-every", 0, "write an unparseable time every N rows (0 disables)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	day, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	table := generate(*rows, *seed, day, *invalidEvery)

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := domain.WriteTable(f, table, domain.DelimiterComma); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("%s: %d events", *out, len(table.Rows))
	return nil
}

// generate builds n events spread over the day starting at start, newest
// first like the USGS feed.
func generate(n int, seed uint64, start time.Time, invalidEvery int) domain.Table {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := domain.Table{Columns: columns, Rows: make([]domain.Row, 0, n)}

	step := 24 * time.Hour / time.Duration(max(n, 1))
	for i := 0; i < n; i++ {
		at := start.Add(24*time.Hour - time.Duration(i+1)*step).
			Add(time.Duration(rng.IntN(1000)) * time.Millisecond)
		r := regions[rng.IntN(len(regions))]
		mag := 0.5 + rng.Float64()*4

		ts := at.Format("2006-01-02T15:04:05.000Z")
		if invalidEvery > 0 && (i+1)%invalidEvery == 0 {
			ts = "unknown"
		}

		t.Rows = append(t.Rows, domain.Row{
			ts,
			fmtFloat(r.lat+rng.Float64()*0.2-0.1, 4),
			fmtFloat(r.lon+rng.Float64()*0.2-0.1, 4),
			fmtFloat(rng.Float64()*20, 2),
			fmtFloat(mag, 2),
			"md",
			strconv.Itoa(5 + rng.IntN(40)),
			strconv.Itoa(40 + rng.IntN(200)),
			fmtFloat(rng.Float64()*0.1, 5),
			fmtFloat(rng.Float64()*0.3, 2),
			r.net,
			fmt.Sprintf("%s%08d", r.net, 73000000+i),
			at.Add(10 * time.Minute).Format("2006-01-02T15:04:05.000Z"),
			fmt.Sprintf("%d km %s of %s", 1+rng.IntN(30), directions[rng.IntN(len(directions))], r.name),
			"earthquake",
			fmtFloat(rng.Float64(), 2),
			fmtFloat(rng.Float64(), 2),
			fmtFloat(rng.Float64()*0.3, 2),
			strconv.Itoa(3 + rng.IntN(20)),
			"automatic",
			r.net,
			r.net,
		})
	}
	return t
}

func fmtFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
