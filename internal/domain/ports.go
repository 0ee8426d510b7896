package domain

import (
	"context"
	"errors"
	"time"
)

// ErrTransport marks failures to retrieve the exposition (network error or non-2xx response).
var ErrTransport = errors.New("metrics transport")

type MetricsSource interface {
	Fetch(ctx context.Context) (string, error)
}

type Presenter interface {
	Render(ctx context.Context, d Dashboard) error
	Connection(ctx context.Context, state ConnectionState, err error)
}

type Notifier interface {
	Notify(ctx context.Context, title, body, url string) error
}

type StatusCache interface {
	Write(ctx context.Context, s Summary) error
}

// CycleObserver receives per-cycle measurements (telemetry).
type CycleObserver interface {
	CycleDone(ctx context.Context, outcome string, elapsed time.Duration)
	ParseDone(ctx context.Context, skipped, uncorrelated int)
}
