// Command pipeline performs one fetch-transform-save run and prints a
// summary of the resulting table. It shares configuration with the server,
// so a cron-driven deployment and the long-running service write the same
// file the same way.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/climadash/weather-pipeline/internal/adapter/openmeteo"
	"github.com/climadash/weather-pipeline/internal/config"
	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
	"github.com/climadash/weather-pipeline/internal/pipeline"
	"github.com/climadash/weather-pipeline/internal/storage"
	"github.com/climadash/weather-pipeline/internal/transform"
)

func main() {
	mode := flag.String("mode", "append", "save mode: append or overwrite")
	startDate := flag.String("start", "", "start date (YYYY-MM-DD), empty for the default forecast window")
	endDate := flag.String("end", "", "end date (YYYY-MM-DD), empty for the default forecast window")
	output := flag.String("output", "", "output CSV path, overrides configuration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.OutputPath = *output
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	start, end, err := parseWindow(*startDate, *endDate)
	if err != nil {
		logger.Error("invalid date flag", "error", err)
		os.Exit(1)
	}

	client := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.FetchTimeout, logger, metrics)
	store := storage.NewManager(logger, metrics)
	runner := pipeline.NewRunner(client, transform.New(), store, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := runner.Run(ctx, pipeline.Request{
		Location:   cfg.Location,
		Start:      start,
		End:        end,
		Variables:  domain.Variables,
		OutputPath: cfg.OutputPath,
		Mode:       storage.Mode(*mode),
	})
	if err != nil {
		logger.Error("run failed", "error", err, "kind", domain.ErrorKind(err))
		os.Exit(1)
	}

	table, err := store.Load(cfg.OutputPath)
	if err != nil {
		logger.Error("reading back output failed", "error", err)
		os.Exit(1)
	}
	stats := table.Summarize()

	logger.Info("run complete",
		"run_id", result.RunID,
		"output", cfg.OutputPath,
		"rows", stats.Rows,
		"from", formatTime(stats.From),
		"to", formatTime(stats.To),
		"mean_temperature_c", formatStat(stats.MeanTemperatureC),
		"mean_humidity_pct", formatStat(stats.MeanHumidityPct),
		"total_precipitation_mm", formatStat(stats.TotalPrecipitationMM),
		"mean_wind_speed_kmh", formatStat(stats.MeanWindSpeedKmh),
	)
}

func parseWindow(startDate, endDate string) (start, end time.Time, err error) {
	if startDate != "" {
		if start, err = time.Parse("2006-01-02", startDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -start: %w", err)
		}
	}
	if endDate != "" {
		if end, err = time.Parse("2006-01-02", endDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -end: %w", err)
		}
	}
	return start, end, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatStat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
