package render_term

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/davarch/ci-pulse/internal/domain"
)

const notAvailable = "N/A"

// FormatDuration renders seconds as "Xm Ys".
func FormatDuration(seconds *float64) string {
	if seconds == nil {
		return notAvailable
	}
	s := *seconds
	return fmt.Sprintf("%dm %ds", int(math.Floor(s/60)), int(math.Floor(math.Mod(s, 60))))
}

// FormatTimestamp is relative for the last day and a date beyond that.
func FormatTimestamp(t *time.Time, now time.Time) string {
	if t == nil {
		return notAvailable
	}
	diff := now.Sub(*t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return t.Local().Format("2006-01-02")
	}
}

func describeSelection(s domain.StringSet) string {
	if len(s) == 0 || s.Has("") {
		return "All"
	}
	return strings.Join(s.Sorted(), ",")
}

func describeCriteria(c domain.Criteria) string {
	st := "All"
	if c.Status != "" {
		st = string(c.Status)
	}
	return fmt.Sprintf("projects=%s refs=%s status=%s",
		describeSelection(c.Projects), describeSelection(c.Refs), st)
}
