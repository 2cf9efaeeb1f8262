package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
)

const dateFormat = "2006-01-02"

// Client fetches hourly forecasts from the Open-Meteo API. It performs a
// single synchronous attempt per call with a bounded timeout; retry policy,
// if any, belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Open-Meteo client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchHourly requests the hourly series for the given location, date range,
// and variable set. Zero start and end dates request the provider's default
// forecast window beginning today. All inputs are validated before any
// network I/O; failures come back as typed domain errors, never raw
// transport errors.
func (c *Client) FetchHourly(ctx context.Context, loc domain.Location, start, end time.Time, vars []domain.Variable) (*domain.HourlyResponse, error) {
	resp, err := c.fetch(ctx, loc, start, end, vars)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(domain.ErrorKind(err)).Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, loc domain.Location, start, end time.Time, vars []domain.Variable) (*domain.HourlyResponse, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateVariables(vars); err != nil {
		return nil, err
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	params := url.Values{
		"latitude":  {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"hourly":    {joinProviderKeys(vars)},
		"timezone":  {loc.Timezone},
	}
	if !start.IsZero() {
		params.Set("start_date", start.Format(dateFormat))
		params.Set("end_date", end.Format(dateFormat))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	startedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(startedAt).Seconds())
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPStatusError{Code: resp.StatusCode}
	}

	var hourly domain.HourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hourly); err != nil {
		return nil, &domain.MalformedResponseError{Reason: fmt.Sprintf("decode body: %v", err)}
	}
	if err := hourly.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched hourly forecast",
		"location", loc.Name,
		"rows", len(hourly.Hourly.Time),
		"variables", joinProviderKeys(vars),
	)
	return &hourly, nil
}

// validateDateRange enforces start ≤ end and rejects half-open ranges.
// A fully-zero range means "provider default forecast starting today".
func validateDateRange(start, end time.Time) error {
	if start.IsZero() && end.IsZero() {
		return nil
	}
	if start.IsZero() != end.IsZero() {
		return &domain.ValidationError{Field: "date range", Reason: "start and end dates must be set together"}
	}
	if start.After(end) {
		return &domain.ValidationError{
			Field:  "date range",
			Reason: fmt.Sprintf("start %s is after end %s", start.Format(dateFormat), end.Format(dateFormat)),
		}
	}
	return nil
}

func joinProviderKeys(vars []domain.Variable) string {
	keys := make([]string, 0, len(vars))
	seen := make(map[domain.Variable]bool, len(vars))
	// Canonical order keeps URLs stable for equal variable sets.
	for _, v := range domain.Variables {
		for _, requested := range vars {
			if requested == v && !seen[v] {
				keys = append(keys, v.ProviderKey())
				seen[v] = true
			}
		}
	}
	return strings.Join(keys, ",")
}
