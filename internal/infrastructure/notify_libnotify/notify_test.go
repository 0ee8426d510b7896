package notify_libnotify

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestArgs(t *testing.T) {
	got := args("CI metrics unreachable", "502 Bad Gateway", "http://exporter/metrics",
		Options{Urgency: "critical", Expire: 5 * time.Second})
	want := []string{
		"--app-name=ci-pulse",
		"--urgency=critical",
		"--expire-time=5000",
		"CI metrics unreachable",
		"502 Bad Gateway\nhttp://exporter/metrics",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q", got)
	}
}

func TestNotify_SoftSwallowsMissingBinary(t *testing.T) {
	n := &Notifier{soft: true, bin: "ci-pulse-no-such-binary"}
	if err := n.Notify(context.Background(), "t", "b", ""); err != nil {
		t.Fatalf("soft notifier returned %v", err)
	}

	hard := &Notifier{bin: "ci-pulse-no-such-binary"}
	if err := hard.Notify(context.Background(), "t", "b", ""); err == nil {
		t.Fatal("expected error from strict notifier")
	}
}
