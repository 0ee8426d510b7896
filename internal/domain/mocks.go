package domain

import (
	"context"
	"sync"
	"time"
)

type MockSource struct {
	mu     sync.Mutex
	Body   string
	Err    error
	Called int
	// Gate, when set, blocks Fetch until it is closed.
	Gate chan struct{}
}

func (m *MockSource) Fetch(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.Called++
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Body, nil
}

func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called
}

type MockPresenter struct {
	mu     sync.Mutex
	Frames []Dashboard
	States []ConnectionState
	Errors []error
	// RenderErr is returned by Render after the frame is recorded.
	RenderErr error
}

func (p *MockPresenter) Render(ctx context.Context, d Dashboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Frames = append(p.Frames, d)
	return p.RenderErr
}

func (p *MockPresenter) Connection(ctx context.Context, state ConnectionState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.States = append(p.States, state)
	p.Errors = append(p.Errors, err)
}

func (p *MockPresenter) LastFrame() (Dashboard, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Frames) == 0 {
		return Dashboard{}, false
	}
	return p.Frames[len(p.Frames)-1], true
}

type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
	Err      error
}

func (n *MockNotifier) Notify(ctx context.Context, title, body, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, title+"|"+body+"|"+url)
	return n.Err
}

type MockCache struct {
	mu        sync.Mutex
	Summaries []Summary
	Err       error
}

func (c *MockCache) Write(ctx context.Context, s Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Summaries = append(c.Summaries, s)
	return nil
}

type MockObserver struct {
	mu       sync.Mutex
	Outcomes []string
	Skipped  int
	Missed   int
}

func (o *MockObserver) CycleDone(ctx context.Context, outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Outcomes = append(o.Outcomes, outcome)
}

func (o *MockObserver) ParseDone(ctx context.Context, skipped, uncorrelated int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Skipped += skipped
	o.Missed += uncorrelated
}
