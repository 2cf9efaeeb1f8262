package domain

import (
	"sort"
	"time"
)

// Record is one normalized hourly observation. The schema is fixed-width:
// all four variable fields always exist, and a variable that was not
// requested (or reported as the provider's null sentinel) is nil.
type Record struct {
	Time            time.Time
	TemperatureC    *float64
	HumidityPct     *float64
	PrecipitationMM *float64
	WindSpeedKmh    *float64
}

// Value returns a pointer to the record's field for the given variable.
func (r *Record) Value(v Variable) *float64 {
	switch v {
	case Temperature:
		return r.TemperatureC
	case Humidity:
		return r.HumidityPct
	case Precipitation:
		return r.PrecipitationMM
	case WindSpeed:
		return r.WindSpeedKmh
	default:
		return nil
	}
}

// SetValue stores a sample for the given variable.
func (r *Record) SetValue(v Variable, val *float64) {
	switch v {
	case Temperature:
		r.TemperatureC = val
	case Humidity:
		r.HumidityPct = val
	case Precipitation:
		r.PrecipitationMM = val
	case WindSpeed:
		r.WindSpeedKmh = val
	}
}

// Dataset is an ordered sequence of records, ascending by timestamp with no
// duplicate timestamps once SortDedup or Merge has run.
type Dataset []Record

// SortDedup returns the dataset sorted ascending by timestamp with duplicate
// timestamps collapsed, keeping the last occurrence. Timestamps compare by
// instant, so equal moments in different zone representations deduplicate.
func (d Dataset) SortDedup() Dataset {
	if len(d) == 0 {
		return Dataset{}
	}
	byInstant := make(map[int64]Record, len(d))
	for _, rec := range d {
		byInstant[rec.Time.UnixNano()] = rec
	}
	out := make(Dataset, 0, len(byInstant))
	for _, rec := range byInstant {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Merge combines the dataset with incoming records by timestamp, incoming
// winning on conflicts, and returns the merged dataset sorted ascending.
func (d Dataset) Merge(incoming Dataset) Dataset {
	combined := make(Dataset, 0, len(d)+len(incoming))
	combined = append(combined, d...)
	combined = append(combined, incoming...)
	return combined.SortDedup()
}

// Stats summarizes a dataset for run reports: means for the intensive
// quantities, a sum for precipitation. Nil when no samples were present.
type Stats struct {
	Rows                 int
	From                 time.Time
	To                   time.Time
	MeanTemperatureC     *float64
	MeanHumidityPct      *float64
	TotalPrecipitationMM *float64
	MeanWindSpeedKmh     *float64
}

// Summarize computes summary statistics over the dataset.
func (d Dataset) Summarize() Stats {
	s := Stats{Rows: len(d)}
	if len(d) == 0 {
		return s
	}
	s.From = d[0].Time
	s.To = d[len(d)-1].Time

	s.MeanTemperatureC = mean(d, Temperature)
	s.MeanHumidityPct = mean(d, Humidity)
	s.TotalPrecipitationMM = sum(d, Precipitation)
	s.MeanWindSpeedKmh = mean(d, WindSpeed)
	return s
}

func mean(d Dataset, v Variable) *float64 {
	total, n := 0.0, 0
	for i := range d {
		if val := d[i].Value(v); val != nil {
			total += *val
			n++
		}
	}
	if n == 0 {
		return nil
	}
	m := total / float64(n)
	return &m
}

func sum(d Dataset, v Variable) *float64 {
	total, n := 0.0, 0
	for i := range d {
		if val := d[i].Value(v); val != nil {
			total += *val
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &total
}

// Float is a convenience for building records with literal sample values.
func Float(v float64) *float64 { return &v }
