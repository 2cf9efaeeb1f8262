// Package transform normalizes raw Open-Meteo hourly responses into the
// canonical tabular dataset. Pure computation: no network, no disk, fully
// deterministic for identical input.
package transform

import (
	"fmt"
	"time"

	"github.com/climadash/weather-pipeline/internal/domain"
)

// hourlyLayout is Open-Meteo's timestamp format: local to the requested
// timezone, no zone suffix.
const hourlyLayout = "2006-01-02T15:04"

// Transformer converts raw hourly responses into datasets.
type Transformer struct{}

// New creates a Transformer.
func New() *Transformer { return &Transformer{} }

// Normalize maps the raw response onto the canonical record schema: one row
// per timestamp, provider keys renamed to canonical columns, timestamps made
// timezone-aware in the location's zone. Records come back sorted ascending
// with duplicate timestamps collapsed, last occurrence winning, regardless
// of upstream ordering.
//
// The record schema is fixed-width: variables that were not requested stay
// nil, as does any sample the provider reported as null. A sample that is
// neither numeric nor null fails the whole normalization; partial datasets
// are never returned.
func (t *Transformer) Normalize(raw *domain.HourlyResponse, loc domain.Location, requested []domain.Variable) (domain.Dataset, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateVariables(requested); err != nil {
		return nil, err
	}
	tz, err := loc.TZ()
	if err != nil {
		return nil, err
	}

	for _, v := range requested {
		if raw.Series(v) == nil {
			return nil, &domain.IncompleteDataError{Variable: v}
		}
	}

	dataset := make(domain.Dataset, 0, len(raw.Hourly.Time))
	for i, stamp := range raw.Hourly.Time {
		ts, err := parseTimestamp(stamp, tz)
		if err != nil {
			return nil, err
		}

		rec := domain.Record{Time: ts}
		for _, v := range requested {
			sample := raw.Series(v)[i]
			switch {
			case sample.Raw != "":
				return nil, &domain.DataIntegrityError{Variable: v, Token: sample.Raw}
			case sample.Null:
				// Missing sample stays nil; coercing to zero would
				// corrupt downstream statistics.
			default:
				rec.SetValue(v, domain.Float(sample.Value))
			}
		}
		dataset = append(dataset, rec)
	}

	return dataset.SortDedup(), nil
}

// parseTimestamp interprets a provider timestamp in the location's zone.
// Timestamps that already carry an offset are accepted as-is.
func parseTimestamp(stamp string, tz *time.Location) (time.Time, error) {
	if ts, err := time.ParseInLocation(hourlyLayout, stamp, tz); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
		return ts, nil
	}
	return time.Time{}, &domain.MalformedResponseError{
		Reason: fmt.Sprintf("unparseable timestamp %q", stamp),
	}
}
