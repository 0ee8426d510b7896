// Package render_term draws the dashboard as plain terminal text.
package render_term

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

const (
	titleWidth = 40
	clearSeq   = "\033[H\033[2J"
)

var _ domain.Presenter = (*Presenter)(nil)

type Presenter struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool
	hint  string
	now   func() time.Time

	conn domain.ConnectionState
}

// New writes frames to w. When w is a terminal each frame replaces the previous one.
func New(w io.Writer) *Presenter {
	clear := false
	if f, ok := w.(*os.File); ok {
		clear = isatty.IsTerminal(f.Fd())
	}
	return &Presenter{w: w, clear: clear, now: time.Now, conn: domain.ConnConnecting}
}

// WithHint sets the footer line, e.g. the key bindings of the watch loop.
func (p *Presenter) WithHint(hint string) *Presenter {
	p.hint = hint
	return p
}

func (p *Presenter) Render(_ context.Context, d domain.Dashboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	if p.clear {
		b.WriteString(clearSeq)
	}
	p.writeHeader(&b, d.UpdatedAt)
	b.WriteString(mutedStyle.Render("Filters: " + describeCriteria(d.Criteria)))
	b.WriteString("\n")
	writeStats(&b, d.Stats)

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Pipelines (%d)", len(d.View.Pipelines))))
	b.WriteString("\n")
	p.writePipelines(&b, d.View.Pipelines)

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Environments (%d)", len(d.View.Environments))))
	b.WriteString("\n")
	writeEnvironments(&b, d.View.Environments)

	if p.hint != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(p.hint))
		b.WriteString("\n")
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

// Connection prints state changes. A failure gets an error block with a retry hint.
func (p *Presenter) Connection(_ context.Context, state domain.ConnectionState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.conn
	p.conn = state
	if state != domain.ConnDisconnected {
		return
	}

	var b strings.Builder
	if prev != domain.ConnDisconnected && p.clear {
		b.WriteString(clearSeq)
	}
	p.writeHeader(&b, time.Time{})
	b.WriteString(errorStyle.Render("Error Loading Data"))
	b.WriteString("\n")
	if err != nil {
		b.WriteString(rowStyle.Render("  Failed to load data: " + err.Error()))
		b.WriteString("\n")
	}
	retry := "  Retry with `ci-pulse show`"
	if p.hint != "" {
		retry = "  " + p.hint
	}
	b.WriteString(mutedStyle.Render(retry))
	b.WriteString("\n")
	_, _ = io.WriteString(p.w, b.String())
}

func (p *Presenter) writeHeader(b *strings.Builder, updated time.Time) {
	parts := []string{headerStyle.Render("ci-pulse"), connectionBadge(p.conn)}
	if !updated.IsZero() {
		parts = append(parts, mutedStyle.Render("Last updated: "+updated.Local().Format("15:04:05")))
	}
	b.WriteString(strings.Join(parts, " │ "))
	b.WriteString("\n")
}

func writeStats(b *strings.Builder, st domain.Stats) {
	counts := []string{
		lipgloss.NewStyle().Foreground(colorSuccess).Render(fmt.Sprintf("%s %d", statusIcon(domain.StatusSuccess), st.Success)),
		lipgloss.NewStyle().Foreground(colorFailed).Render(fmt.Sprintf("%s %d", statusIcon(domain.StatusFailed), st.Failed)),
		lipgloss.NewStyle().Foreground(colorRunning).Render(fmt.Sprintf("%s %d", statusIcon(domain.StatusRunning), st.Running)),
		lipgloss.NewStyle().Foreground(colorPending).Render(fmt.Sprintf("%s %d", statusIcon(domain.StatusPending), st.Pending)),
	}
	b.WriteString(strings.Join(counts, "  "))
	b.WriteString(rowStyle.Render(fmt.Sprintf("   success %d%%  avg %dm  projects %d  refs %d",
		st.SuccessRate, st.AvgDurationMinutes, st.Projects, st.Refs)))
	b.WriteString("\n")
}

func (p *Presenter) writePipelines(b *strings.Builder, ps []domain.Pipeline) {
	if len(ps) == 0 {
		b.WriteString(emptyStyle.Render("  No pipelines found. Try adjusting your filters or check the exporter configuration."))
		b.WriteString("\n")
		return
	}
	now := p.now()
	for _, pl := range ps {
		title := runewidth.FillRight(runewidth.Truncate(pl.Project+" / "+pl.Ref, titleWidth, "…"), titleWidth)
		icon := lipgloss.NewStyle().Foreground(statusColor(pl.Status)).Render(
			runewidth.FillRight(statusIcon(pl.Status)+" "+string(pl.Status), 10))
		line := fmt.Sprintf("  %s %s #%-10s %-9s %s", icon, rowStyle.Render(title), pl.ID,
			FormatDuration(pl.Duration), FormatTimestamp(pl.Timestamp, now))
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func writeEnvironments(b *strings.Builder, envs []domain.Environment) {
	if len(envs) == 0 {
		b.WriteString(emptyStyle.Render("  No environments found."))
		b.WriteString("\n")
		return
	}
	for _, e := range envs {
		state := lipgloss.NewStyle().Foreground(colorSuccess).Render("Available  ")
		if !e.Available {
			state = lipgloss.NewStyle().Foreground(colorFailed).Render("Unavailable")
		}
		title := runewidth.FillRight(runewidth.Truncate(e.Project, titleWidth, "…"), titleWidth)
		line := fmt.Sprintf("  %s %s %-16s", state, rowStyle.Render(title), e.Name)
		if e.ExternalURL != "" {
			line += " " + mutedStyle.Render(e.ExternalURL)
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}
}
