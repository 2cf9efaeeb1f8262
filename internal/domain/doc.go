// Package domain models hourly weather data fetched from the Open-Meteo
// forecast API and normalized for CSV persistence.
//
// # Data Source
//
// Hourly forecasts come from https://api.open-meteo.com/v1/forecast. The
// response carries an "hourly" object: a "time" axis of ISO 8601 timestamps
// (one per hour, in the requested timezone, no zone suffix) plus one numeric
// array per requested variable, aligned index-for-index with the axis.
//
// # Provider Conventions
//
// Variable keys and units:
//
//	temperature_2m        → temperature_c    (°C)
//	relative_humidity_2m  → humidity_pct     (%)
//	precipitation         → precipitation_mm (mm)
//	wind_speed_10m        → wind_speed_kmh   (km/h)
//
// Null sentinel:
//
//	A JSON null in a series marks a missing sample, distinct from a genuine
//	zero reading. Nulls survive normalization as nil record fields; any other
//	non-numeric token is rejected as a data-integrity failure rather than
//	coerced, because a fabricated zero would skew downstream statistics.
//
// # Dataset Invariants
//
// A Dataset is ascending by timestamp with no duplicate timestamps. The
// transformer sorts and deduplicates defensively (last occurrence wins), and
// storage merges by timestamp with last-write-wins, so the invariant holds
// regardless of upstream ordering quirks.
//
// # Persisted Form
//
// Datasets persist as UTF-8 CSV with the fixed header
// "time,temperature_c,humidity_pct,precipitation_mm,wind_speed_kmh":
// RFC 3339 timestamps, two-decimal fixed-precision floats, and nulls as
// empty fields (never a literal zero or "null"). The dashboard reads this
// file directly, so the convention is load-bearing.
package domain
