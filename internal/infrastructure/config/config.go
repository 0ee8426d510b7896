package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMetricsURL = "http://localhost:8080/metrics"
	DefaultInterval   = 30 * time.Second
	DefaultTimeout    = 10 * time.Second
)

type Filter struct {
	Projects []string `yaml:"projects,omitempty"`
	Refs     []string `yaml:"refs,omitempty"`
	Status   string   `yaml:"status,omitempty"`
}

type Config struct {
	Metrics struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
	} `yaml:"metrics"`

	Refresh struct {
		Interval  time.Duration `yaml:"interval"`
		Auto      *bool         `yaml:"auto,omitempty"`
		PauseFile string        `yaml:"pause_file"`
	} `yaml:"refresh"`

	Filter Filter `yaml:"filter"`

	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"log"`

	Notify struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"notify"`

	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
		Insecure     bool   `yaml:"insecure"`
	} `yaml:"telemetry"`
}

// AutoRefresh reports whether the refresh loop starts enabled (default true).
func (c Config) AutoRefresh() bool {
	return c.Refresh.Auto == nil || *c.Refresh.Auto
}

// Criteria converts the configured filter into domain criteria.
func (c Config) Criteria() (domain.Criteria, error) {
	st, ok := domain.ParseStatus(c.Filter.Status)
	if !ok {
		return domain.Criteria{}, fmt.Errorf("filter.status: unknown status %q", c.Filter.Status)
	}
	return domain.Criteria{
		Projects: domain.NewStringSet(c.Filter.Projects...),
		Refs:     domain.NewStringSet(c.Filter.Refs...),
		Status:   st,
	}, nil
}

// Load applies defaults, then the YAML file (a missing file is fine), then
// environment variables. A .env file in the working directory is read first.
func Load(path string) (Config, error) {
	var c Config

	_ = godotenv.Load()

	c.Metrics.URL = DefaultMetricsURL
	c.Metrics.Timeout = DefaultTimeout
	c.Refresh.Interval = DefaultInterval
	c.Cache.Path = expandHome("~/.cache/ci_pulse.json")
	c.Log.Level = "info"
	c.Notify.Enabled = true
	c.Telemetry.Insecure = true

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return c, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if v := os.Getenv("CI_PULSE_METRICS_URL"); v != "" {
		c.Metrics.URL = v
	}

	if v := os.Getenv("CI_PULSE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Metrics.Timeout = d
		}
	}

	if v := os.Getenv("CI_PULSE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Metrics.Retries = n
		}
	}

	if v := os.Getenv("CI_PULSE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Refresh.Interval = d
		}
	}

	if v := os.Getenv("CI_PULSE_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}

	if v := os.Getenv("CI_PULSE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if v := os.Getenv("CI_PULSE_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}

	if v, ok := os.LookupEnv("CI_PULSE_PROJECTS"); ok {
		c.Filter.Projects = splitList(v)
	}

	if v, ok := os.LookupEnv("CI_PULSE_REFS"); ok {
		c.Filter.Refs = splitList(v)
	}

	if v, ok := os.LookupEnv("CI_PULSE_STATUS"); ok {
		c.Filter.Status = strings.TrimSpace(v)
	}

	c.Cache.Path = expandHome(c.Cache.Path)
	if c.Metrics.URL == "" {
		c.Metrics.URL = DefaultMetricsURL
	}

	if c.Refresh.Interval <= 0 {
		c.Refresh.Interval = DefaultInterval
	}

	if c.Metrics.Timeout <= 0 {
		c.Metrics.Timeout = DefaultTimeout
	}

	if c.Metrics.Retries < 0 {
		c.Metrics.Retries = 0
	}

	if c.Refresh.PauseFile == "" {
		c.Refresh.PauseFile = expandHome("~/.cache/ci_pulse_paused")
	}
	c.Refresh.PauseFile = expandHome(c.Refresh.PauseFile)

	if _, err := c.Criteria(); err != nil {
		return c, err
	}

	return c, nil
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// splitList parses a comma separated list. An empty item is kept: it is the
// "All" option of a multi-select.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
