package domain

// Criteria holds the user's current selection. The zero value matches everything.
type Criteria struct {
	Projects StringSet
	Refs     StringSet
	Status   Status
}

type FilteredView struct {
	Pipelines    []Pipeline    `json:"pipelines"`
	Environments []Environment `json:"environments"`
}

// matchesDimension implements the multi-select rule: an empty selection or one
// containing the "" (All) option matches any value.
func matchesDimension(sel StringSet, v string) bool {
	return len(sel) == 0 || sel.Has("") || sel.Has(v)
}

func (c Criteria) MatchPipeline(p Pipeline) bool {
	return matchesDimension(c.Projects, p.Project) &&
		matchesDimension(c.Refs, p.Ref) &&
		(c.Status == "" || c.Status == p.Status)
}

// MatchEnvironment only looks at the project selection.
func (c Criteria) MatchEnvironment(e Environment) bool {
	return matchesDimension(c.Projects, e.Project)
}

// Apply returns the subset of s matching c. s is not modified.
func Apply(s Snapshot, c Criteria) FilteredView {
	view := FilteredView{
		Pipelines:    make([]Pipeline, 0, len(s.Pipelines)),
		Environments: make([]Environment, 0, len(s.Environments)),
	}
	for _, p := range s.Pipelines {
		if c.MatchPipeline(p) {
			view.Pipelines = append(view.Pipelines, p)
		}
	}
	for _, e := range s.Environments {
		if c.MatchEnvironment(e) {
			view.Environments = append(view.Environments, e)
		}
	}
	return view
}
