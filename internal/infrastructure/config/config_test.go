package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davarch/ci-pulse/internal/domain"
)

func TestLoad_FromYAMLAndEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	cfgFile := filepath.Join(tmp, "config.yaml")

	yaml := `
metrics:
  url: http://exporter:8080/metrics
  timeout: 5s

refresh:
  interval: 10s
  auto: false

filter:
  projects: [group/api]
  status: failed

cache:
  path: /tmp/ci_pulse.json
`
	if err := os.WriteFile(cfgFile, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CI_PULSE_METRICS_URL", "http://env:9090/metrics")
	t.Setenv("CI_PULSE_REFS", "main, dev")

	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Metrics.URL != "http://env:9090/metrics" {
		t.Errorf("env override failed, got %s", c.Metrics.URL)
	}
	if c.Metrics.Timeout != 5*time.Second {
		t.Errorf("timeout = %s", c.Metrics.Timeout)
	}
	if c.Refresh.Interval != 10*time.Second {
		t.Errorf("interval = %s", c.Refresh.Interval)
	}
	if c.AutoRefresh() {
		t.Error("auto refresh should be disabled")
	}

	crit, err := c.Criteria()
	if err != nil {
		t.Fatal(err)
	}
	if !crit.Projects.Has("group/api") || crit.Projects.Len() != 1 {
		t.Errorf("projects = %v", crit.Projects.Sorted())
	}
	if !crit.Refs.Has("main") || !crit.Refs.Has("dev") {
		t.Errorf("refs = %v", crit.Refs.Sorted())
	}
	if crit.Status != domain.StatusFailed {
		t.Errorf("status = %q", crit.Status)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Metrics.URL != DefaultMetricsURL {
		t.Errorf("url = %s", c.Metrics.URL)
	}
	if c.Refresh.Interval != DefaultInterval {
		t.Errorf("interval = %s", c.Refresh.Interval)
	}
	if c.Metrics.Retries != 0 {
		t.Errorf("retries = %d", c.Metrics.Retries)
	}
	if !c.AutoRefresh() {
		t.Error("auto refresh should default to on")
	}
}

func TestLoad_RejectsUnknownStatus(t *testing.T) {
	t.Setenv("CI_PULSE_STATUS", "green")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestLoad_AllOptionSurvivesEnvList(t *testing.T) {
	t.Setenv("CI_PULSE_PROJECTS", ",group/api")

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	crit, _ := c.Criteria()
	if !crit.Projects.Has("") {
		t.Errorf("expected the All option, got %v", crit.Projects.Sorted())
	}
}

func TestSave_RoundTripsFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	c.Filter.Projects = []string{"group/web"}

	if err := Save(path, c); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(back.Filter.Projects) != 1 || back.Filter.Projects[0] != "group/web" {
		t.Errorf("projects = %v", back.Filter.Projects)
	}
}
