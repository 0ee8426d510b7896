package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/davarch/ci-pulse/internal/infrastructure/config"
	"github.com/davarch/ci-pulse/internal/infrastructure/metrics_file"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMetrics = `gitlab_ci_pipeline_last_run_status{project="group/api",ref="main",id="7"} 1
gitlab_ci_pipeline_last_run_status{project="group/web",ref="dev",id="8"} 2
`

func TestSelectProject(t *testing.T) {
	out, changed := selectProject(nil, "group/api")
	assert.True(t, changed)
	assert.Equal(t, []string{"group/api"}, out)

	out, changed = selectProject([]string{"", "group/web"}, "group/api")
	assert.True(t, changed)
	assert.Equal(t, []string{"group/web", "group/api"}, out)

	_, changed = selectProject([]string{"group/api"}, "group/api")
	assert.False(t, changed)
}

func TestDeselectProject(t *testing.T) {
	out, changed := deselectProject([]string{"group/api", "group/web"}, "group/api")
	assert.True(t, changed)
	assert.Equal(t, []string{"group/web"}, out)

	_, changed = deselectProject([]string{"group/web"}, "group/api")
	assert.False(t, changed)

	assert.True(t, selectsAll(nil))
	assert.True(t, selectsAll([]string{"", "group/api"}))
	assert.False(t, selectsAll([]string{"group/api"}))
}

func TestFilterFlags_FlagsOverrideConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Filter.Projects = []string{"group/web"}
	cfg.Filter.Status = "failed"

	var f filterFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--project", "group/api", "--ref", "main"}))

	c, err := f.criteria(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"group/api"}, c.Projects.Sorted())
	assert.Equal(t, []string{"main"}, c.Refs.Sorted())
	assert.Equal(t, domain.StatusFailed, c.Status, "unchanged flags keep the configured value")
}

func TestFilterFlags_RejectsUnknownStatus(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	var f filterFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--status", "green"}))

	_, err = f.criteria(cmd, cfg)
	assert.Error(t, err)
}

func TestJSONPresenter(t *testing.T) {
	var buf bytes.Buffer
	p := newJSONPresenter(&buf)

	d := domain.Dashboard{
		View:     domain.FilteredView{Pipelines: []domain.Pipeline{{Project: "group/api", Ref: "main", ID: "7", Status: domain.StatusSuccess}}},
		Stats:    domain.Stats{Success: 1, SuccessRate: 100},
		Projects: []string{"group/api"},
		Criteria: domain.Criteria{Status: domain.StatusFailed},
	}
	require.NoError(t, p.Render(context.Background(), d))

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Contains(t, back, "stats")
	assert.NotContains(t, back, "Criteria")
}

func TestFetchSnapshot_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleMetrics), 0o644))

	snap, err := fetchSnapshot(context.Background(), metrics_file.New(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"group/api", "group/web"}, snap.Projects.Sorted())
	assert.Equal(t, []string{"dev", "main"}, snap.Refs.Sorted())
}

func TestFetchSnapshot_SourceError(t *testing.T) {
	snap, err := fetchSnapshot(context.Background(), metrics_file.New(filepath.Join(t.TempDir(), "absent")))
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Empty(t, snap.Pipelines)
}
