package metrics_http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/ci-pulse/internal/domain"
)

// maxBody caps how much of the exposition is read; exporters with thousands of
// projects stay well below this. A larger body is an error, never truncated.
var maxBody int64 = 32 << 20

type Client struct {
	url     string
	retries uint64
	hc      *http.Client
}

// New builds a client for the exporter's metrics endpoint. retries is the
// number of extra attempts on network errors, 429 and 5xx; 0 means a failed
// fetch is reported right away and recovery is left to the next cycle.
func New(url string, timeout time.Duration, retries int) *Client {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	if retries < 0 {
		retries = 0
	}

	return &Client{
		url:     url,
		retries: uint64(retries),
		hc:      &http.Client{Transport: tr, Timeout: timeout},
	}
}

func (c *Client) Fetch(ctx context.Context) (string, error) {
	var out string

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "text/plain")

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}

		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" && c.retries > 0 {
				if sec, _ := strconv.Atoi(ra); sec > 0 {
					select {
					case <-time.After(time.Duration(sec) * time.Second):
					case <-ctx.Done():
						return backoff.Permanent(ctx.Err())
					}
				}
			}
			return fmt.Errorf("metrics endpoint %s", resp.Status)
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("metrics endpoint %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("metrics endpoint %s", resp.Status))
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
		if err != nil {
			return err
		}
		if int64(len(b)) > maxBody {
			return backoff.Permanent(fmt.Errorf("metrics body exceeds %d bytes", maxBody))
		}
		out = string(b)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 5 * time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("%w: fetch %s: %w", domain.ErrTransport, c.url, err)
	}
	return out, nil
}
