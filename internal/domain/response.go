package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sample is a single hourly reading as received from the provider.
// JSON null (the provider's "no data" sentinel) and non-numeric tokens are
// preserved separately so the transformer can distinguish a missing sample
// from corrupt data.
type Sample struct {
	Value float64
	Null  bool
	Raw   string // original token when neither a number nor null
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Sample{Null: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*s = Sample{Value: v}
		return nil
	}
	*s = Sample{Raw: string(data)}
	return nil
}

// HourlySeries holds the hourly axis and the known variable series.
// A nil series means the provider did not include that key; unknown keys in
// the payload are dropped by the decoder.
type HourlySeries struct {
	Time               []string `json:"time"`
	Temperature2M      []Sample `json:"temperature_2m"`
	RelativeHumidity2M []Sample `json:"relative_humidity_2m"`
	Precipitation      []Sample `json:"precipitation"`
	WindSpeed10M       []Sample `json:"wind_speed_10m"`
}

// HourlyResponse is the raw structured payload from the Open-Meteo forecast
// endpoint. Produced once per fetch, immutable, consumed by the transformer.
type HourlyResponse struct {
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Timezone    string            `json:"timezone"`
	HourlyUnits map[string]string `json:"hourly_units"`
	Hourly      HourlySeries      `json:"hourly"`
}

// Series returns the sample sequence for a variable, or nil if the response
// does not carry it.
func (r *HourlyResponse) Series(v Variable) []Sample {
	switch v {
	case Temperature:
		return r.Hourly.Temperature2M
	case Humidity:
		return r.Hourly.RelativeHumidity2M
	case Precipitation:
		return r.Hourly.Precipitation
	case WindSpeed:
		return r.Hourly.WindSpeed10M
	default:
		return nil
	}
}

// Validate enforces the response invariants: the hourly axis is present and
// every delivered series has exactly one sample per timestamp.
func (r *HourlyResponse) Validate() error {
	if len(r.Hourly.Time) == 0 {
		return &MalformedResponseError{Reason: "missing hourly time axis"}
	}
	n := len(r.Hourly.Time)
	for _, v := range Variables {
		series := r.Series(v)
		if series == nil {
			continue
		}
		if len(series) != n {
			return &MalformedResponseError{
				Reason: fmt.Sprintf("series %q has %d samples for %d timestamps",
					v.ProviderKey(), len(series), n),
			}
		}
	}
	return nil
}
