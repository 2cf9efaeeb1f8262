//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
)

// These tests hit the real Open-Meteo API (no key required).
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestSmoke_FetchHourly(t *testing.T) {
	c := smokeClient()
	loc := domain.Location{Name: "Medellín", Latitude: 6.244, Longitude: -75.581, Timezone: "America/Bogota"}

	resp, err := c.FetchHourly(context.Background(), loc, time.Time{}, time.Time{}, domain.Variables)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Hourly.Time)
	assert.Len(t, resp.Hourly.Temperature2M, len(resp.Hourly.Time))
	assert.Len(t, resp.Hourly.RelativeHumidity2M, len(resp.Hourly.Time))
	assert.Len(t, resp.Hourly.Precipitation, len(resp.Hourly.Time))
	assert.Len(t, resp.Hourly.WindSpeed10M, len(resp.Hourly.Time))
}

func TestSmoke_FetchHourly_BadCoordinatesRejectedLocally(t *testing.T) {
	c := smokeClient()
	loc := domain.Location{Name: "nowhere", Latitude: 200, Longitude: 0, Timezone: "UTC"}

	_, err := c.FetchHourly(context.Background(), loc, time.Time{}, time.Time{}, domain.Variables)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
