package domain

import (
	"fmt"
	"strings"
	"time"
)

// Location is the immutable geographic query target for a pipeline run.
// Constructed once from configuration or an API request, read-only after.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Validate checks coordinate ranges and the timezone identifier.
// Out-of-range coordinates are an error, never clamped.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return &ValidationError{
			Field:  "latitude",
			Reason: fmt.Sprintf("%g is outside [-90, 90]", l.Latitude),
		}
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return &ValidationError{
			Field:  "longitude",
			Reason: fmt.Sprintf("%g is outside [-180, 180]", l.Longitude),
		}
	}
	if strings.TrimSpace(l.Timezone) == "" {
		return &ValidationError{Field: "timezone", Reason: "must not be empty"}
	}
	if _, err := time.LoadLocation(l.Timezone); err != nil {
		return &ValidationError{
			Field:  "timezone",
			Reason: fmt.Sprintf("%q is not a valid IANA timezone", l.Timezone),
		}
	}
	return nil
}

// TZ resolves the IANA timezone identifier.
func (l Location) TZ() (*time.Location, error) {
	tz, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, &ValidationError{
			Field:  "timezone",
			Reason: fmt.Sprintf("%q is not a valid IANA timezone", l.Timezone),
		}
	}
	return tz, nil
}
