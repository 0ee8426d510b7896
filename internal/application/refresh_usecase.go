package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/davarch/ci-pulse/internal/exposition"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeRender    = "render_error"
)

// Deps are the collaborators of a refresh cycle. Cache, Notifier and Observer
// are optional.
type Deps struct {
	Source    domain.MetricsSource
	Presenter domain.Presenter
	Cache     domain.StatusCache
	Notifier  domain.Notifier
	Observer  domain.CycleObserver
}

type RefreshUseCase struct {
	log    *zap.Logger
	deps   Deps
	store  *SnapshotStore
	tracer trace.Tracer
	now    func() time.Time

	flight singleflight.Group

	mu        sync.Mutex
	criteria  domain.Criteria
	conn      domain.ConnectionState
	settled   domain.ConnectionState
	updatedAt time.Time
}

func NewRefreshUseCase(log *zap.Logger, store *SnapshotStore, deps Deps, criteria domain.Criteria) *RefreshUseCase {
	return &RefreshUseCase{
		log:      log,
		deps:     deps,
		store:    store,
		tracer:   otel.Tracer("github.com/davarch/ci-pulse/internal/application"),
		now:      time.Now,
		criteria: criteria,
	}
}

// Refresh runs one fetch-parse-render cycle. A call made while a cycle is in
// flight waits for that cycle and shares its result instead of starting another.
func (uc *RefreshUseCase) Refresh(ctx context.Context) error {
	_, err, shared := uc.flight.Do("refresh", func() (any, error) {
		return nil, uc.cycle(ctx)
	})
	if shared {
		uc.log.Debug("refresh joined in-flight cycle")
	}
	return err
}

func (uc *RefreshUseCase) cycle(ctx context.Context) error {
	start := uc.now()
	ctx, span := uc.tracer.Start(ctx, "refresh")
	defer span.End()

	uc.setConnection(ctx, domain.ConnConnecting, nil)

	body, err := uc.deps.Source.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		uc.setConnection(ctx, domain.ConnDisconnected, err)
		uc.writeSummary(ctx, err)
		uc.observe(ctx, OutcomeTransport, start)
		return fmt.Errorf("refresh: %w", err)
	}

	res := exposition.Parse(body)
	span.SetAttributes(
		attribute.Int("pipelines", len(res.Snapshot.Pipelines)),
		attribute.Int("environments", len(res.Snapshot.Environments)),
	)
	if res.Stats.Uncorrelated > 0 || res.Stats.Skipped > 0 {
		uc.log.Debug("parse dropped facts",
			zap.Int("skipped", res.Stats.Skipped),
			zap.Int("uncorrelated", res.Stats.Uncorrelated),
			zap.Int("synthesized_ids", res.Stats.Synthesized),
		)
	}
	if uc.deps.Observer != nil {
		uc.deps.Observer.ParseDone(ctx, res.Stats.Skipped, res.Stats.Uncorrelated)
	}

	uc.store.Replace(res.Snapshot)
	uc.mu.Lock()
	uc.updatedAt = uc.now()
	uc.mu.Unlock()

	if err := uc.render(ctx); err != nil {
		// The exporter answered, so the connection is settled even though
		// this frame could not be drawn.
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		uc.setConnection(ctx, domain.ConnConnected, nil)
		uc.writeSummary(ctx, err)
		uc.observe(ctx, OutcomeRender, start)
		return err
	}

	uc.setConnection(ctx, domain.ConnConnected, nil)
	uc.writeSummary(ctx, nil)
	uc.observe(ctx, OutcomeOK, start)

	uc.log.Debug("refreshed",
		zap.Int("lines", res.Stats.Lines),
		zap.Int("pipelines", len(res.Snapshot.Pipelines)),
		zap.Int("environments", len(res.Snapshot.Environments)),
		zap.Duration("took", uc.now().Sub(start)),
	)
	return nil
}

// SetCriteria changes the filter and re-renders the stored snapshot without fetching.
func (uc *RefreshUseCase) SetCriteria(ctx context.Context, c domain.Criteria) error {
	uc.mu.Lock()
	uc.criteria = c
	uc.mu.Unlock()
	return uc.render(ctx)
}

func (uc *RefreshUseCase) Criteria() domain.Criteria {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.criteria
}

func (uc *RefreshUseCase) Connection() domain.ConnectionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.conn
}

// Dashboard filters and summarizes the stored snapshot with the current criteria.
func (uc *RefreshUseCase) Dashboard() domain.Dashboard {
	uc.mu.Lock()
	c := uc.criteria
	updated := uc.updatedAt
	uc.mu.Unlock()

	snap := uc.store.Current()
	view := domain.Apply(snap, c)
	view.Pipelines = domain.SortByTimestampDesc(view.Pipelines)

	return domain.Dashboard{
		View:      view,
		Stats:     domain.Summarize(view.Pipelines, snap),
		Criteria:  c,
		Projects:  snap.Projects.Sorted(),
		Refs:      snap.Refs.Sorted(),
		UpdatedAt: updated,
	}
}

func (uc *RefreshUseCase) render(ctx context.Context) error {
	if err := uc.deps.Presenter.Render(ctx, uc.Dashboard()); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func (uc *RefreshUseCase) setConnection(ctx context.Context, state domain.ConnectionState, err error) {
	uc.mu.Lock()
	prev := uc.settled
	uc.conn = state
	if state != domain.ConnConnecting {
		uc.settled = state
	}
	uc.mu.Unlock()

	uc.deps.Presenter.Connection(ctx, state, err)

	if uc.deps.Notifier == nil || state == domain.ConnConnecting || prev == "" || prev == state {
		return
	}
	title, body := "CI metrics reachable again", ""
	if state == domain.ConnDisconnected {
		title = "CI metrics unreachable"
		if err != nil {
			body = err.Error()
		}
	}
	if nerr := uc.deps.Notifier.Notify(ctx, title, body, ""); nerr != nil {
		uc.log.Warn("notify failed", zap.Error(nerr))
	}
}

func (uc *RefreshUseCase) writeSummary(ctx context.Context, cause error) {
	if uc.deps.Cache == nil {
		return
	}
	s := domain.Summary{
		Connection: uc.Connection(),
		Stats:      uc.Dashboard().Stats,
		Retrieved:  uc.now().Unix(),
	}
	if cause != nil {
		s.Error = cause.Error()
	}
	if err := uc.deps.Cache.Write(ctx, s); err != nil {
		uc.log.Warn("cache write failed", zap.Error(err))
	}
}

func (uc *RefreshUseCase) observe(ctx context.Context, outcome string, start time.Time) {
	if uc.deps.Observer != nil {
		uc.deps.Observer.CycleDone(ctx, outcome, uc.now().Sub(start))
	}
}

// IsTransport reports whether err came from retrieving the exposition.
func IsTransport(err error) bool {
	return errors.Is(err, domain.ErrTransport)
}
