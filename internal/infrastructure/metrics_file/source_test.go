package metrics_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davarch/ci-pulse/internal/domain"
)

func TestSource_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.txt")
	if err := os.WriteFile(path, []byte("# empty\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# empty\n" {
		t.Errorf("got %q", got)
	}
}

func TestSource_Stdin(t *testing.T) {
	s := &Source{path: "-", stdin: strings.NewReader("x 1\n")}

	got, err := s.Fetch(context.Background())
	if err != nil || got != "x 1\n" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestSource_MissingFileIsTransportError(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).Fetch(context.Background())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
