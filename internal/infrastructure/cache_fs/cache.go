package cache_fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davarch/ci-pulse/internal/domain"
)

// FSCache keeps the latest summary in a small JSON file for status bars (waybar
// custom modules and the like). Each write replaces the file.
type FSCache struct {
	path string
}

func New(path string) *FSCache { return &FSCache{path: path} }

type record struct {
	Text        string `json:"text"`
	Class       string `json:"class"`
	Connection  string `json:"connection"`
	Success     int    `json:"success"`
	Failed      int    `json:"failed"`
	Running     int    `json:"running"`
	Pending     int    `json:"pending"`
	SuccessRate int    `json:"success_rate"`
	AvgMinutes  int    `json:"avg_duration_minutes"`
	Projects    int    `json:"projects"`
	Refs        int    `json:"refs"`
	Error       string `json:"error,omitempty"`
	Retrieved   int64  `json:"retrieved"`
}

func (c *FSCache) Write(_ context.Context, s domain.Summary) error {
	if c.path == "" {
		return errors.New("cache path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	if err := enc.Encode(toRecord(s)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

func toRecord(s domain.Summary) record {
	r := record{
		Connection:  string(s.Connection),
		Success:     s.Stats.Success,
		Failed:      s.Stats.Failed,
		Running:     s.Stats.Running,
		Pending:     s.Stats.Pending,
		SuccessRate: s.Stats.SuccessRate,
		AvgMinutes:  s.Stats.AvgDurationMinutes,
		Projects:    s.Stats.Projects,
		Refs:        s.Stats.Refs,
		Error:       s.Error,
		Retrieved:   s.Retrieved,
	}

	switch {
	case s.Connection == domain.ConnDisconnected:
		r.Class = "disconnected"
		r.Text = "CI ⨯"
	case s.Stats.Failed > 0:
		r.Class = "failed"
		r.Text = fmt.Sprintf("CI %d%% ❌%d", s.Stats.SuccessRate, s.Stats.Failed)
	case s.Stats.Running > 0 || s.Stats.Pending > 0:
		r.Class = "running"
		r.Text = fmt.Sprintf("CI %d%% ▶%d", s.Stats.SuccessRate, s.Stats.Running+s.Stats.Pending)
	default:
		r.Class = "success"
		r.Text = fmt.Sprintf("CI %d%%", s.Stats.SuccessRate)
	}
	return r
}
