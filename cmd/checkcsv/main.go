// Command checkcsv performs integrity checks on a persisted weather CSV:
// schema, value parsing, timestamp uniqueness, and ordering. It is meant for
// operators inspecting a table after manual edits or a suspected bad run.
//
// Usage:
//
//	go run ./cmd/checkcsv -file data/weather_data.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var expectedHeader = []string{"time", "temperature_c", "humidity_pct", "precipitation_mm", "wind_speed_kmh"}

// bounds are sanity limits per column, generous enough for any real climate.
var bounds = map[string][2]float64{
	"temperature_c":    {-90, 60},
	"humidity_pct":     {0, 100},
	"precipitation_mm": {0, 500},
	"wind_speed_kmh":   {0, 500},
}

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
	file := flag.String("file", "data/weather_data.csv", "weather CSV to check")
	flag.Parse()

	os.Exit(run(*file))
}

func run(path string) int {
	fmt.Println("=== Weather CSV Integrity Check ===")
	fmt.Println()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open %s: %v\n", path, err)
		return 1
	}
	defer f.Close()

	header, rows, loadErr := loadRows(f)

	schema := &phase{name: "schema"}
	if loadErr != nil {
		schema.errorf("%v", loadErr)
	} else {
		checkSchema(schema, header)
	}

	values := &phase{name: "value parsing and bounds"}
	timestamps := make([]time.Time, 0, len(rows))
	if schema.passed() {
		timestamps = checkValues(values, rows)
	}

	uniqueness := &phase{name: "timestamp uniqueness"}
	ordering := &phase{name: "ascending order"}
	if schema.passed() && values.passed() {
		checkUniqueness(uniqueness, timestamps)
		checkOrdering(ordering, timestamps)
	}

	phases := []*phase{schema, values, uniqueness, ordering}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-28s %s\n", p.name, status)
	}
	fmt.Printf("\nRows: %d\n", len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nCheck FAILED.")
	return 1
}

func loadRows(f io.Reader) (header []string, rows [][]string, err error) {
	r := csv.NewReader(f)
	header, err = r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return header, rows, fmt.Errorf("read rows: %w", err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func checkSchema(p *phase, header []string) {
	if len(header) != len(expectedHeader) {
		p.errorf("expected %d columns, found %d: %v", len(expectedHeader), len(header), header)
		return
	}
	for i, want := range expectedHeader {
		if header[i] != want {
			p.errorf("column %d: expected %q, found %q", i+1, want, header[i])
		}
	}
}

func checkValues(p *phase, rows [][]string) []time.Time {
	timestamps := make([]time.Time, 0, len(rows))
	for i, row := range rows {
		line := i + 2

		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			p.errorf("line %d: bad timestamp %q", line, row[0])
			continue
		}
		timestamps = append(timestamps, ts)

		for col := 1; col < len(row); col++ {
			name := expectedHeader[col]
			field := row[col]
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				p.errorf("line %d: non-numeric %s value %q", line, name, field)
				continue
			}
			if b, ok := bounds[name]; ok && (v < b[0] || v > b[1]) {
				p.errorf("line %d: %s value %.2f outside [%.0f, %.0f]", line, name, v, b[0], b[1])
			}
		}
	}
	return timestamps
}

func checkUniqueness(p *phase, timestamps []time.Time) {
	seen := make(map[int64]int, len(timestamps))
	for i, ts := range timestamps {
		line := i + 2
		if prev, ok := seen[ts.UnixNano()]; ok {
			p.errorf("line %d: duplicate timestamp %s, first seen on line %d", line, ts.Format(time.RFC3339), prev)
			continue
		}
		seen[ts.UnixNano()] = line
	}
}

func checkOrdering(p *phase, timestamps []time.Time) {
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			p.errorf("line %d: timestamp %s is not after the previous row",
				i+2, timestamps[i].Format(time.RFC3339))
		}
	}
}
