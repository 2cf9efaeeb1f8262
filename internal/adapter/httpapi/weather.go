package httpapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/pipeline"
	"github.com/climadash/weather-pipeline/internal/storage"
)

// maxResponseHours caps how many rows a weather response carries. The full
// table lives in the CSV; the API returns the most recent window.
const maxResponseHours = 24

var validate = validator.New(validator.WithRequiredStructEnabled())

type currentWeatherRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Timezone  string   `json:"timezone"`
	Variables []string `json:"variables"`
	Mode      string   `json:"mode" validate:"omitempty,oneof=overwrite append"`
	StartDate string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type locationPayload struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

type hourPayload struct {
	Time            string   `json:"time"`
	TemperatureC    *float64 `json:"temperature_c"`
	HumidityPct     *float64 `json:"humidity_pct"`
	PrecipitationMM *float64 `json:"precipitation_mm"`
	WindSpeedKmh    *float64 `json:"wind_speed_kmh"`
}

type statsPayload struct {
	Rows                 int      `json:"rows"`
	From                 string   `json:"from,omitempty"`
	To                   string   `json:"to,omitempty"`
	MeanTemperatureC     *float64 `json:"mean_temperature_c"`
	MeanHumidityPct      *float64 `json:"mean_humidity_pct"`
	TotalPrecipitationMM *float64 `json:"total_precipitation_mm"`
	MeanWindSpeedKmh     *float64 `json:"mean_wind_speed_kmh"`
}

type currentWeatherResponse struct {
	RunID         string          `json:"run_id"`
	Location      locationPayload `json:"location"`
	FromCache     bool            `json:"from_cache"`
	RowsPersisted int             `json:"rows_persisted"`
	Stats         statsPayload    `json:"stats"`
	Hours         []hourPayload   `json:"hours"`
}

func (s *Server) handleCurrentWeather(w http.ResponseWriter, r *http.Request) {
	var body currentWeatherRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	req, err := s.buildRequest(&body)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildResponse(result, req.Location))
}

func (s *Server) buildRequest(body *currentWeatherRequest) (pipeline.Request, error) {
	loc := domain.Location{
		Name:      body.Name,
		Latitude:  *body.Latitude,
		Longitude: *body.Longitude,
		Timezone:  body.Timezone,
	}
	if loc.Name == "" {
		loc.Name = "custom"
	}
	if loc.Timezone == "" {
		loc.Timezone = s.cfg.Location.Timezone
	}
	if err := loc.Validate(); err != nil {
		return pipeline.Request{}, err
	}

	vars := domain.Variables
	if len(body.Variables) > 0 {
		vars = make([]domain.Variable, 0, len(body.Variables))
		for _, name := range body.Variables {
			v, err := domain.ParseVariable(name)
			if err != nil {
				return pipeline.Request{}, err
			}
			vars = append(vars, v)
		}
	}

	mode := storage.ModeAppend
	if body.Mode != "" {
		mode = storage.Mode(body.Mode)
	}

	var start, end time.Time
	if body.StartDate != "" {
		start, _ = time.Parse("2006-01-02", body.StartDate)
	}
	if body.EndDate != "" {
		end, _ = time.Parse("2006-01-02", body.EndDate)
	}

	return pipeline.Request{
		Location:   loc,
		Start:      start,
		End:        end,
		Variables:  vars,
		OutputPath: s.cfg.OutputPath,
		Mode:       mode,
	}, nil
}

func buildResponse(result *pipeline.Result, loc domain.Location) currentWeatherResponse {
	stats := result.Dataset.Summarize()

	hours := result.Dataset
	if len(hours) > maxResponseHours {
		hours = hours[len(hours)-maxResponseHours:]
	}
	payload := make([]hourPayload, len(hours))
	for i := range hours {
		rec := &hours[i]
		payload[i] = hourPayload{
			Time:            rec.Time.Format(time.RFC3339),
			TemperatureC:    rec.TemperatureC,
			HumidityPct:     rec.HumidityPct,
			PrecipitationMM: rec.PrecipitationMM,
			WindSpeedKmh:    rec.WindSpeedKmh,
		}
	}

	resp := currentWeatherResponse{
		RunID: result.RunID,
		Location: locationPayload{
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Timezone:  loc.Timezone,
		},
		FromCache:     result.FromCache,
		RowsPersisted: result.RowsPersisted,
		Stats: statsPayload{
			Rows:                 stats.Rows,
			MeanTemperatureC:     stats.MeanTemperatureC,
			MeanHumidityPct:      stats.MeanHumidityPct,
			TotalPrecipitationMM: stats.TotalPrecipitationMM,
			MeanWindSpeedKmh:     stats.MeanWindSpeedKmh,
		},
		Hours: payload,
	}
	if stats.Rows > 0 {
		resp.Stats.From = stats.From.Format(time.RFC3339)
		resp.Stats.To = stats.To.Format(time.RFC3339)
	}
	return resp
}
