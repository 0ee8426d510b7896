package metrics_file

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/davarch/ci-pulse/internal/domain"
)

// Source reads a saved exposition, e.g. `curl -s exporter:8080/metrics > dump.txt`.
// The path "-" reads standard input once.
type Source struct {
	path  string
	stdin io.Reader
}

func New(path string) *Source { return &Source{path: path, stdin: os.Stdin} }

func (s *Source) Fetch(_ context.Context) (string, error) {
	if s.path == "-" {
		b, err := io.ReadAll(s.stdin)
		if err != nil {
			return "", fmt.Errorf("%w: read stdin: %w", domain.ErrTransport, err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return string(b), nil
}
