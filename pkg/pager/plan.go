package pager

// FetchStep is one tier of a Plan.
type FetchStep struct {
	Origin        Origin
	Authoritative bool

	// Persist writes a successful authoritative network result back into
	// the cache.
	Persist bool
}

// Plan is an ordered list of fetch steps with exactly one authoritative
// step, or no steps at all. The invariant is held by construction: a Plan
// carries at most one provisional step and one authoritative step.
type Plan struct {
	preview       *FetchStep
	authoritative *FetchStep
}

// emptyPlan has no steps; the coordinator answers it with its fixed policy.
func emptyPlan() Plan {
	return Plan{}
}

// singleStepPlan answers from origin alone.
func singleStepPlan(origin Origin) Plan {
	return Plan{
		authoritative: &FetchStep{Origin: origin, Authoritative: true},
	}
}

// previewThenNetworkPlan stages the cache as a preview and answers from the
// network.
func previewThenNetworkPlan(persist bool) Plan {
	return Plan{
		preview:       &FetchStep{Origin: OriginCache},
		authoritative: &FetchStep{Origin: OriginNetwork, Authoritative: true, Persist: persist},
	}
}

// Empty reports whether the plan has no steps.
func (p Plan) Empty() bool {
	return p.authoritative == nil
}

// Steps returns the steps in dispatch order: preview first.
func (p Plan) Steps() []FetchStep {
	steps := make([]FetchStep, 0, 2)
	if p.preview != nil {
		steps = append(steps, *p.preview)
	}
	if p.authoritative != nil {
		steps = append(steps, *p.authoritative)
	}
	return steps
}

// Authoritative returns the authoritative step.
func (p Plan) Authoritative() (FetchStep, bool) {
	if p.authoritative == nil {
		return FetchStep{}, false
	}
	return *p.authoritative, true
}

// HasPreview reports whether the plan stages a provisional cache read.
func (p Plan) HasPreview() bool {
	return p.preview != nil
}
