// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pipedemo drives the pipes runtime through a set of concurrent
// workloads and reports the runtime counters at exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"code.hybscloud.com/pipes"
	"code.hybscloud.com/pipes/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "pipedemo: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "pipedemo").Logger()
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	pipes.SetLogger(logger.With().Str("component", "pipes").Logger())
	pipes.SetSpinCount(cfg.SpinCount)

	reg := prometheus.NewRegistry()
	rec := metrics.NewWorkloads()
	if err := metrics.Register(reg, rec); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	logger.Info().
		Strs("workloads", cfg.Workloads).
		Int("producers", cfg.Producers).
		Int("messages", cfg.Messages).
		Dur("timeout", cfg.Timeout).
		Msg("starting")

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	runErr := runAll(ctx, cfg, logger, rec)

	if err := report(reg, logger); err != nil {
		logger.Warn().Err(err).Msg("gather metrics")
	}
	return runErr
}

// report logs every counter and histogram count registered on reg.
func report(reg prometheus.Gatherer, logger zerolog.Logger) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			ev := logger.Info().Str("metric", mf.GetName())
			for _, lp := range m.GetLabel() {
				ev = ev.Str(lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				ev = ev.Float64("value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				ev = ev.Uint64("count", m.GetHistogram().GetSampleCount()).
					Float64("sum", m.GetHistogram().GetSampleSum())
			}
			ev.Msg("metric")
		}
	}
	return nil
}
