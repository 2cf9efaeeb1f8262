package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
)

var testLocation = domain.Location{
	Name:      "Medellín",
	Latitude:  6.244,
	Longitude: -75.581,
	Timezone:  "America/Bogota",
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

const hourlyBody = `{
	"latitude": 6.25, "longitude": -75.5, "timezone": "America/Bogota",
	"hourly_units": {"temperature_2m": "°C", "wind_speed_10m": "km/h"},
	"hourly": {
		"time": ["2024-01-01T00:00", "2024-01-01T01:00", "2024-01-01T02:00"],
		"temperature_2m": [10.0, 10.5, null],
		"wind_speed_10m": [5, 6, 7]
	}
}`

func TestClient_FetchHourly_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "6.244", q.Get("latitude"))
		assert.Equal(t, "-75.581", q.Get("longitude"))
		assert.Equal(t, "temperature_2m,wind_speed_10m", q.Get("hourly"))
		assert.Equal(t, "America/Bogota", q.Get("timezone"))
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-02", q.Get("end_date"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hourlyBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	resp, err := c.FetchHourly(context.Background(), testLocation, start, end,
		[]domain.Variable{domain.Temperature, domain.WindSpeed})
	require.NoError(t, err)

	require.Len(t, resp.Hourly.Time, 3)
	assert.Equal(t, domain.Sample{Value: 10.5}, resp.Hourly.Temperature2M[1])
	assert.Equal(t, domain.Sample{Null: true}, resp.Hourly.Temperature2M[2])
	assert.Nil(t, resp.Series(domain.Humidity))
}

func TestClient_FetchHourly_DefaultForecastOmitsDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("start_date"))
		assert.Empty(t, r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(hourlyBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchHourly(context.Background(), testLocation, time.Time{}, time.Time{},
		[]domain.Variable{domain.Temperature})
	require.NoError(t, err)
}

func TestClient_FetchHourly_ValidationShortCircuitsNetwork(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(hourlyBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	vars := []domain.Variable{domain.Temperature}

	t.Run("latitude out of range", func(t *testing.T) {
		loc := testLocation
		loc.Latitude = 91
		_, err := c.FetchHourly(context.Background(), loc, time.Time{}, time.Time{}, vars)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("longitude out of range", func(t *testing.T) {
		loc := testLocation
		loc.Longitude = -180.1
		_, err := c.FetchHourly(context.Background(), loc, time.Time{}, time.Time{}, vars)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("empty variable set", func(t *testing.T) {
		_, err := c.FetchHourly(context.Background(), testLocation, time.Time{}, time.Time{}, nil)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown variable", func(t *testing.T) {
		_, err := c.FetchHourly(context.Background(), testLocation, time.Time{}, time.Time{},
			[]domain.Variable{domain.Variable("uv_index")})
		var uerr *domain.UnsupportedVariableError
		require.ErrorAs(t, err, &uerr)
	})

	t.Run("inverted date range", func(t *testing.T) {
		start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := c.FetchHourly(context.Background(), testLocation, start, end, vars)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	assert.Zero(t, calls.Load(), "no request may reach the network on validation failure")
}

func TestClient_FetchHourly_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchHourly(context.Background(), testLocation, time.Time{}, time.Time{},
		[]domain.Variable{domain.Temperature})

	var serr *domain.HTTPStatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusTooManyRequests, serr.Code)
}

func TestClient_FetchHourly_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.FetchHourly(context.Background(), testLocation, time.Time{}, time.Time{},
		[]domain.Variable{domain.Temperature})

	var nerr *domain.NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestClient_FetchHourly_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", "<!doctype html>"},
		{"missing hourly axis", `{"latitude": 6.25, "hourly": {}}`},
		{"short series", `{"hourly": {
			"time": ["2024-01-01T00:00", "2024-01-01T01:00", "2024-01-01T02:00"],
			"temperature_2m": [10.0, 10.5]
		}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := testClient(srv.URL)
			_, err := c.FetchHourly(context.Background(), testLocation, time.Time{}, time.Time{},
				[]domain.Variable{domain.Temperature})

			var merr *domain.MalformedResponseError
			require.ErrorAs(t, err, &merr)
		})
	}
}
