package domain

import (
	"sort"
	"time"
)

type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
	StatusRunning  Status = "running"
	StatusPending  Status = "pending"
	StatusCreated  Status = "created"
	StatusUnknown  Status = "unknown"
)

// statusByCode is indexed by the exporter's integer status code.
var statusByCode = [...]Status{
	StatusSuccess,
	StatusFailed,
	StatusCanceled,
	StatusSkipped,
	StatusRunning,
	StatusPending,
	StatusCreated,
}

// StatusFromCode maps codes 0..6 to their status; anything else is StatusUnknown.
func StatusFromCode(code int64) Status {
	if code < 0 || code >= int64(len(statusByCode)) {
		return StatusUnknown
	}
	return statusByCode[code]
}

// ParseStatus accepts a status name as typed on the command line.
// The empty string is valid and means "any status".
func ParseStatus(s string) (Status, bool) {
	if s == "" {
		return "", true
	}
	for _, st := range statusByCode {
		if string(st) == s {
			return st, true
		}
	}
	if s == string(StatusUnknown) {
		return StatusUnknown, true
	}
	return "", false
}

const UnknownLabel = "Unknown"

type PipelineKey struct {
	Project string
	Ref     string
	ID      string
}

type Pipeline struct {
	Project   string     `json:"project"`
	Ref       string     `json:"ref"`
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	Duration  *float64   `json:"duration,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (p Pipeline) Key() PipelineKey {
	return PipelineKey{Project: p.Project, Ref: p.Ref, ID: p.ID}
}

type Environment struct {
	Project     string `json:"project"`
	Name        string `json:"name"`
	ExternalURL string `json:"external_url"`
	Available   bool   `json:"available"`
}

// StringSet is an unordered set of strings.
type StringSet map[string]struct{}

func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Len() int { return len(s) }

// Sorted returns the members in alphabetical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot is the full result of one parse. It is built once and never mutated.
type Snapshot struct {
	Pipelines    []Pipeline
	Environments []Environment
	Projects     StringSet
	Refs         StringSet
}

// NewSnapshot derives the project and ref sets from the pipeline records.
func NewSnapshot(pipelines []Pipeline, environments []Environment) Snapshot {
	projects := make(StringSet)
	refs := make(StringSet)
	for _, p := range pipelines {
		projects[p.Project] = struct{}{}
		refs[p.Ref] = struct{}{}
	}
	if pipelines == nil {
		pipelines = []Pipeline{}
	}
	if environments == nil {
		environments = []Environment{}
	}
	return Snapshot{
		Pipelines:    pipelines,
		Environments: environments,
		Projects:     projects,
		Refs:         refs,
	}
}

func EmptySnapshot() Snapshot { return NewSnapshot(nil, nil) }

type ConnectionState string

const (
	ConnConnecting   ConnectionState = "connecting"
	ConnConnected    ConnectionState = "connected"
	ConnDisconnected ConnectionState = "disconnected"
)

// Dashboard is everything the presenter needs for one frame.
type Dashboard struct {
	View      FilteredView `json:"view"`
	Stats     Stats        `json:"stats"`
	Criteria  Criteria     `json:"-"`
	Projects  []string     `json:"projects"`
	Refs      []string     `json:"refs"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Summary is the compact record written to the status cache file.
type Summary struct {
	Connection ConnectionState
	Stats      Stats
	Error      string
	Retrieved  int64
}
