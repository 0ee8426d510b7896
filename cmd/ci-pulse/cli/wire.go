package cli

import (
	"context"
	"fmt"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/davarch/ci-pulse/internal/infrastructure/config"
	"github.com/davarch/ci-pulse/internal/infrastructure/metrics_file"
	"github.com/davarch/ci-pulse/internal/infrastructure/metrics_http"
	"github.com/davarch/ci-pulse/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sourceFor picks the exporter endpoint, or a saved exposition when file is set.
func sourceFor(cfg config.Config, file string) domain.MetricsSource {
	if file != "" {
		return metrics_file.New(file)
	}
	return metrics_http.New(cfg.Metrics.URL, cfg.Metrics.Timeout, cfg.Metrics.Retries)
}

type filterFlags struct {
	projects []string
	refs     []string
	status   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.projects, "project", nil, `only these projects ("" selects all)`)
	cmd.Flags().StringSliceVar(&f.refs, "ref", nil, `only these refs ("" selects all)`)
	cmd.Flags().StringVar(&f.status, "status", "", "only pipelines with this status")
}

// criteria starts from the configured filter and lets explicit flags win.
func (f *filterFlags) criteria(cmd *cobra.Command, cfg config.Config) (domain.Criteria, error) {
	c, err := cfg.Criteria()
	if err != nil {
		return c, err
	}
	if cmd.Flags().Changed("project") {
		c.Projects = domain.NewStringSet(f.projects...)
	}
	if cmd.Flags().Changed("ref") {
		c.Refs = domain.NewStringSet(f.refs...)
	}
	if cmd.Flags().Changed("status") {
		st, ok := domain.ParseStatus(f.status)
		if !ok {
			return c, fmt.Errorf("--status: unknown status %q", f.status)
		}
		c.Status = st
	}
	return c, nil
}

// observer sets up OTLP export when configured and returns the cycle instruments.
func observer(ctx context.Context, cfg config.Config, log *zap.Logger) (domain.CycleObserver, telemetry.Shutdown, error) {
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, buildVersion(), cfg.Telemetry.Insecure)
	if err != nil {
		return nil, nil, err
	}
	inst, err := telemetry.NewInstruments(telemetry.Meter("github.com/davarch/ci-pulse"))
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, err
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		log.Info("telemetry enabled", zap.String("otlp_endpoint", cfg.Telemetry.OTLPEndpoint))
	}
	return inst, shutdown, nil
}
