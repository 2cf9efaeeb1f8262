// Package storage persists weather datasets as CSV files.
//
// On-disk convention: UTF-8, header row, RFC 3339 timestamps, floats with
// two-decimal fixed precision, nulls as empty fields. Writes go to a temp
// file in the destination directory followed by an atomic rename, so readers
// only ever observe a fully-written table.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
)

// Mode selects the save semantics.
type Mode string

const (
	// ModeOverwrite replaces the file with exactly the given dataset.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend merges the dataset into the existing file by timestamp,
	// last write winning, and rewrites the whole table. A blind append would
	// break the uniqueness invariant.
	ModeAppend Mode = "append"
)

// header is the fixed persisted column order.
var header = []string{"time", "temperature_c", "humidity_pct", "precipitation_mm", "wind_speed_kmh"}

// Manager saves and loads datasets.
type Manager struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	// beforeReplace runs between writing the temp file and the conflict
	// re-check. Tests use it to race an external writer into the window.
	beforeReplace func()
}

// NewManager creates a storage Manager.
func NewManager(logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{logger: logger, metrics: metrics}
}

// Save persists the dataset to path and returns the number of rows in the
// final table. Append mode detects an external modification between its own
// load and rewrite and fails rather than clobbering a concurrent writer.
func (m *Manager) Save(dataset domain.Dataset, path string, mode Mode) (int, error) {
	n, err := m.save(dataset, path, mode)
	if err != nil {
		m.metrics.StorageErrors.Inc()
		return 0, err
	}
	m.metrics.RowsPersisted.Add(float64(n))
	m.logger.Debug("dataset persisted", "path", path, "rows", n, "mode", string(mode))
	return n, nil
}

func (m *Manager) save(dataset domain.Dataset, path string, mode Mode) (int, error) {
	if mode != ModeOverwrite && mode != ModeAppend {
		return 0, &domain.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown save mode %q", mode)}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, &domain.StorageError{Reason: "create output directory", Err: err}
	}

	final := dataset.SortDedup()

	var before fingerprint
	var existed bool
	if mode == ModeAppend {
		existing, fp, ok, err := m.loadFingerprinted(path)
		if err != nil {
			return 0, err
		}
		before, existed = fp, ok
		final = existing.Merge(dataset)
	}

	tmp, err := writeTemp(dir, final)
	if err != nil {
		return 0, err
	}

	if m.beforeReplace != nil {
		m.beforeReplace()
	}

	if mode == ModeAppend {
		after, existsNow, statErr := statFingerprint(path)
		if statErr != nil {
			_ = os.Remove(tmp)
			return 0, &domain.StorageError{Reason: "stat existing file", Err: statErr}
		}
		if existsNow != existed || after != before {
			_ = os.Remove(tmp)
			return 0, &domain.StorageError{Reason: "concurrent modification detected, aborting rewrite"}
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, &domain.StorageError{Reason: "replace destination file", Err: err}
	}
	return len(final), nil
}

// Load reads a persisted dataset. A missing file is a valid first-run state
// and yields an empty dataset. Row order is preserved as-is.
func (m *Manager) Load(path string) (domain.Dataset, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return domain.Dataset{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Reason: "open file", Err: err}
	}
	defer f.Close()

	return m.readDataset(f, path)
}

// loadFingerprinted reads the dataset and fingerprints the file through one
// open handle, so the conflict window guarded by the pre-rename re-check
// starts at the exact content the merge is based on. ok is false when the
// file does not exist.
func (m *Manager) loadFingerprinted(path string) (domain.Dataset, fingerprint, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return domain.Dataset{}, fingerprint{}, false, nil
	}
	if err != nil {
		return nil, fingerprint{}, false, &domain.StorageError{Reason: "open file", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fingerprint{}, false, &domain.StorageError{Reason: "stat existing file", Err: err}
	}
	fp := fingerprint{modTime: info.ModTime(), size: info.Size()}

	dataset, err := m.readDataset(f, path)
	if err != nil {
		return nil, fingerprint{}, false, err
	}
	return dataset, fp, true, nil
}

func (m *Manager) readDataset(f io.Reader, path string) (domain.Dataset, error) {
	r := csv.NewReader(f)

	head, err := r.Read()
	if err != nil {
		return nil, &domain.CorruptFileError{Path: path, Reason: "missing header row"}
	}
	if !equalHeader(head) {
		return nil, &domain.CorruptFileError{
			Path:   path,
			Reason: fmt.Sprintf("unexpected columns %v", head),
		}
	}

	var dataset domain.Dataset
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.CorruptFileError{Path: path, Reason: err.Error()}
		}

		rec, err := parseRow(row, path, line)
		if err != nil {
			return nil, err
		}
		dataset = append(dataset, rec)
	}
	if dataset == nil {
		dataset = domain.Dataset{}
	}
	return dataset, nil
}

func writeTemp(dir string, dataset domain.Dataset) (string, error) {
	f, err := os.CreateTemp(dir, ".weather-*.csv.tmp")
	if err != nil {
		return "", &domain.StorageError{Reason: "create temp file", Err: err}
	}
	tmp := f.Name()

	fail := func(reason string, err error) (string, error) {
		f.Close()
		_ = os.Remove(tmp)
		return "", &domain.StorageError{Reason: reason, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fail("write header", err)
	}
	for i := range dataset {
		if err := w.Write(formatRow(&dataset[i])); err != nil {
			return fail("write row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fail("flush rows", err)
	}
	// Flush to disk before the rename makes the table visible.
	if err := f.Sync(); err != nil {
		return fail("sync temp file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.StorageError{Reason: "close temp file", Err: err}
	}
	return tmp, nil
}

func formatRow(rec *domain.Record) []string {
	return []string{
		rec.Time.Format(time.RFC3339),
		formatValue(rec.TemperatureC),
		formatValue(rec.HumidityPct),
		formatValue(rec.PrecipitationMM),
		formatValue(rec.WindSpeedKmh),
	}
}

// formatValue renders a sample with two-decimal fixed precision; a null
// sample is an empty field, never "0" or a literal "null".
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func parseRow(row []string, path string, line int) (domain.Record, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return domain.Record{}, &domain.CorruptFileError{
			Path:   path,
			Reason: fmt.Sprintf("line %d: bad timestamp %q", line, row[0]),
		}
	}
	rec := domain.Record{Time: ts}

	for i, v := range domain.Variables {
		field := row[i+1]
		if field == "" {
			continue
		}
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return domain.Record{}, &domain.CorruptFileError{
				Path:   path,
				Reason: fmt.Sprintf("line %d: non-numeric %s value %q", line, v.Column(), field),
			}
		}
		rec.SetValue(v, domain.Float(val))
	}
	return rec, nil
}

func equalHeader(got []string) bool {
	if len(got) != len(header) {
		return false
	}
	for i := range header {
		if got[i] != header[i] {
			return false
		}
	}
	return true
}

// fingerprint captures file state for concurrent-modification detection.
type fingerprint struct {
	modTime time.Time
	size    int64
}

func statFingerprint(path string) (fingerprint, bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fingerprint{}, false, nil
	}
	if err != nil {
		return fingerprint{}, false, err
	}
	return fingerprint{modTime: info.ModTime(), size: info.Size()}, true, nil
}
