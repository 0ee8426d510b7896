package cache_fs

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/davarch/ci-pulse/internal/domain"
)

func TestCache_WriteCreatesFile(t *testing.T) {
	tmp := t.TempDir()
	path := tmp + "/sub/summary.json"

	c := New(path)
	s := domain.Summary{
		Connection: domain.ConnConnected,
		Stats:      domain.Stats{Success: 3, Failed: 1, SuccessRate: 75, Projects: 2, Refs: 2},
		Retrieved:  123,
	}
	if err := c.Write(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	var got record
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Class != "failed" || got.SuccessRate != 75 || got.Retrieved != 123 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestCache_DisconnectedWinsOverStats(t *testing.T) {
	r := toRecord(domain.Summary{
		Connection: domain.ConnDisconnected,
		Stats:      domain.Stats{Failed: 2},
		Error:      "metrics transport: 502",
	})
	if r.Class != "disconnected" || r.Error == "" {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestCache_EmptyPath(t *testing.T) {
	if err := New("").Write(context.Background(), domain.Summary{}); err == nil {
		t.Fatal("expected error")
	}
}
