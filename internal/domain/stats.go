package domain

import (
	"math"
	"slices"
	"time"
)

type Stats struct {
	Success            int `json:"success"`
	Failed             int `json:"failed"`
	Running            int `json:"running"`
	Pending            int `json:"pending"`
	SuccessRate        int `json:"success_rate"`
	AvgDurationMinutes int `json:"avg_duration_minutes"`
	Projects           int `json:"projects"`
	Refs               int `json:"refs"`
}

// Summarize computes the dashboard figures. Counts, rate and average duration
// describe the filtered pipelines; Projects and Refs describe the whole snapshot.
func Summarize(filtered []Pipeline, global Snapshot) Stats {
	var st Stats
	var minutes float64
	var timed int

	for _, p := range filtered {
		switch p.Status {
		case StatusSuccess:
			st.Success++
		case StatusFailed:
			st.Failed++
		case StatusRunning:
			st.Running++
		case StatusPending:
			st.Pending++
		}
		if p.Duration != nil {
			minutes += *p.Duration / 60
			timed++
		}
	}

	if n := len(filtered); n > 0 {
		st.SuccessRate = int(math.Round(float64(st.Success) / float64(n) * 100))
	}
	if timed > 0 {
		st.AvgDurationMinutes = int(math.Round(minutes / float64(timed)))
	}

	st.Projects = global.Projects.Len()
	st.Refs = global.Refs.Len()
	return st
}

// SortByTimestampDesc returns a copy ordered newest first. Pipelines without a
// timestamp sort as if stamped at the Unix epoch.
func SortByTimestampDesc(pipelines []Pipeline) []Pipeline {
	out := slices.Clone(pipelines)
	slices.SortStableFunc(out, func(a, b Pipeline) int {
		return sortTime(b).Compare(sortTime(a))
	})
	return out
}

func sortTime(p Pipeline) time.Time {
	if p.Timestamp == nil {
		return time.Unix(0, 0)
	}
	return *p.Timestamp
}
