package exposition

import (
	"bufio"
	"strings"

	"github.com/davarch/ci-pulse/internal/domain"
)

type ParseStats struct {
	Lines int
	Facts int
	// Skipped counts lines of a known family that did not match its pattern.
	Skipped int
	// Uncorrelated counts duration/timestamp facts with no earlier status record.
	Uncorrelated int
	// Synthesized counts status records that were given a random id.
	Synthesized int
}

type Result struct {
	Snapshot domain.Snapshot
	Stats    ParseStats
}

// Correlator folds facts, in input order, into pipeline and environment records.
type Correlator struct {
	pipelines    []domain.Pipeline
	environments []domain.Environment
	index        map[domain.PipelineKey]int
	missed       int
}

func NewCorrelator() *Correlator {
	return &Correlator{index: make(map[domain.PipelineKey]int)}
}

// Add merges one fact. It reports false when a duration or timestamp fact had
// no status record to attach to; such facts are dropped.
func (c *Correlator) Add(f Fact) bool {
	switch f := f.(type) {
	case StatusFact:
		p := domain.Pipeline{Project: f.Key.Project, Ref: f.Key.Ref, ID: f.Key.ID, Status: f.Status}
		if i, ok := c.index[f.Key]; ok {
			c.pipelines[i] = p
			return true
		}
		c.index[f.Key] = len(c.pipelines)
		c.pipelines = append(c.pipelines, p)

	case DurationFact:
		i, ok := c.index[f.Key]
		if !ok {
			c.missed++
			return false
		}
		d := f.Seconds
		c.pipelines[i].Duration = &d

	case TimestampFact:
		i, ok := c.index[f.Key]
		if !ok {
			c.missed++
			return false
		}
		at := f.At
		c.pipelines[i].Timestamp = &at

	case EnvironmentFact:
		c.environments = append(c.environments, f.Environment)
	}
	return true
}

func (c *Correlator) Missed() int { return c.missed }

func (c *Correlator) Snapshot() domain.Snapshot {
	return domain.NewSnapshot(c.pipelines, c.environments)
}

// Correlate is the batch form of Correlator.
func Correlate(facts []Fact) ([]domain.Pipeline, []domain.Environment) {
	c := NewCorrelator()
	for _, f := range facts {
		c.Add(f)
	}
	s := c.Snapshot()
	return s.Pipelines, s.Environments
}

// Parse runs the whole text through the line parser and correlator. It accepts
// any input; text that is not an exposition produces an empty snapshot.
func Parse(text string) Result {
	var st ParseStats
	c := NewCorrelator()

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), max(len(text)+1, 64*1024))
	for sc.Scan() {
		st.Lines++
		fact, ok, err := ParseLine(sc.Text())
		if !ok {
			continue
		}
		if err != nil {
			st.Skipped++
			continue
		}
		st.Facts++
		if sf, isStatus := fact.(StatusFact); isStatus && sf.SynthesizedID {
			st.Synthesized++
		}
		c.Add(fact)
	}

	st.Uncorrelated = c.Missed()
	return Result{Snapshot: c.Snapshot(), Stats: st}
}
