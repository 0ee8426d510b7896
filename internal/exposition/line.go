package exposition

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/google/uuid"
)

type Family int

const (
	FamilyNone Family = iota
	FamilyStatus
	FamilyDuration
	FamilyTimestamp
	FamilyEnvironment
)

const (
	MetricStatus      = "gitlab_ci_pipeline_last_run_status"
	MetricDuration    = "gitlab_ci_pipeline_last_run_duration_seconds"
	MetricTimestamp   = "gitlab_ci_pipeline_timestamp"
	MetricEnvironment = "gitlab_ci_environment_information"
)

type family struct {
	kind    Family
	name    string
	pattern *regexp.Regexp
}

func newFamily(kind Family, name, value string) family {
	return family{
		kind:    kind,
		name:    name,
		// The value must end at whitespace or end of line, so a number followed
		// by anything else is malformed rather than read as its prefix.
		pattern: regexp.MustCompile(regexp.QuoteMeta(name) + `\{([^}]+)\}\s+(` + value + `)(?:\s|$)`),
	}
}

// floatValue accepts the exporters' float formatting, exponent included.
const floatValue = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`

var families = []family{
	newFamily(FamilyStatus, MetricStatus, `\d+`),
	newFamily(FamilyDuration, MetricDuration, floatValue),
	newFamily(FamilyTimestamp, MetricTimestamp, floatValue),
	newFamily(FamilyEnvironment, MetricEnvironment, `\d+`),
}

func (f Family) String() string {
	switch f {
	case FamilyStatus:
		return "status"
	case FamilyDuration:
		return "duration"
	case FamilyTimestamp:
		return "timestamp"
	case FamilyEnvironment:
		return "environment"
	default:
		return "none"
	}
}

// Fact is one decoded exposition line. The concrete types are StatusFact,
// DurationFact, TimestampFact and EnvironmentFact.
type Fact interface {
	Family() Family
}

type StatusFact struct {
	Key    domain.PipelineKey
	Status domain.Status
	// SynthesizedID is set when the series had no id label.
	SynthesizedID bool
}

type DurationFact struct {
	Key     domain.PipelineKey
	Seconds float64
}

type TimestampFact struct {
	Key domain.PipelineKey
	At  time.Time
}

type EnvironmentFact struct {
	Environment domain.Environment
}

func (StatusFact) Family() Family      { return FamilyStatus }
func (DurationFact) Family() Family    { return FamilyDuration }
func (TimestampFact) Family() Family   { return FamilyTimestamp }
func (EnvironmentFact) Family() Family { return FamilyEnvironment }

// newID produces the stand-in id for status series exported without one.
// Swapped in tests.
var newID = uuid.NewString

// Classify returns the family whose metric name occurs in line, or FamilyNone
// for comments, blank lines and unrelated metrics.
func Classify(line string) Family {
	if f, ok := classify(line); ok {
		return f.kind
	}
	return FamilyNone
}

func classify(line string) (family, bool) {
	if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
		return family{}, false
	}
	for _, f := range families {
		if strings.Contains(line, f.name) {
			return f, true
		}
	}
	return family{}, false
}

var errMalformed = errors.New("malformed line")

// ParseLine decodes a single exposition line. ok is false when the line is not
// one of the four known families; err is errMalformed when it is, but its label
// set or value cannot be read.
func ParseLine(line string) (fact Fact, ok bool, err error) {
	f, ok := classify(line)
	if !ok {
		return nil, false, nil
	}

	m := f.pattern.FindStringSubmatch(line)
	if m == nil {
		return nil, true, errMalformed
	}
	labels := DecodeLabels(m[1])
	raw := m[2]

	switch f.kind {
	case FamilyStatus:
		key, synthesized := statusKey(labels)
		return StatusFact{Key: key, Status: domain.StatusFromCode(parseCode(raw)), SynthesizedID: synthesized}, true, nil

	case FamilyDuration:
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, true, errMalformed
		}
		return DurationFact{Key: refinementKey(labels), Seconds: v}, true, nil

	case FamilyTimestamp:
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, true, errMalformed
		}
		ms := math.Round(v * 1000)
		if ms >= math.MaxInt64 || ms < math.MinInt64 {
			return nil, true, errMalformed
		}
		return TimestampFact{Key: refinementKey(labels), At: time.UnixMilli(int64(ms))}, true, nil

	case FamilyEnvironment:
		return EnvironmentFact{Environment: domain.Environment{
			Project:     labelOr(labels, "project", domain.UnknownLabel),
			Name:        labelOr(labels, "environment", domain.UnknownLabel),
			ExternalURL: labels["external_url"],
			Available:   parseCode(raw) == 1,
		}}, true, nil
	}

	return nil, false, nil
}

// parseCode reads a run of digits. Values too large for int64 are not a valid
// status or availability code, so they map to -1.
func parseCode(raw string) int64 {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1
	}
	return v
}

func labelOr(labels map[string]string, key, def string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return def
}

func statusKey(labels map[string]string) (domain.PipelineKey, bool) {
	key := domain.PipelineKey{
		Project: labelOr(labels, "project", domain.UnknownLabel),
		Ref:     labelOr(labels, "ref", domain.UnknownLabel),
		ID:      labels["id"],
	}
	if key.ID == "" {
		key.ID = newID()
		return key, true
	}
	return key, false
}

// refinementKey keeps a missing id empty. No status record ever has an empty
// id, so duration and timestamp series without an id never correlate; this
// includes series whose status line got a synthesized id.
func refinementKey(labels map[string]string) domain.PipelineKey {
	return domain.PipelineKey{
		Project: labelOr(labels, "project", domain.UnknownLabel),
		Ref:     labelOr(labels, "ref", domain.UnknownLabel),
		ID:      labels["id"],
	}
}
