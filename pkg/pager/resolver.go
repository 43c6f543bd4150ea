package pager

// Resolve maps a request phase and the requested strategy to a fetch plan.
//
// Only the first page benefits from instant display, so FORWARD plans never
// read the cache; an offline (CacheOnly) session therefore never pages
// forward. BACKWARD always resolves to the empty plan since lists are
// forward-only.
func Resolve(phase Phase, strategy Strategy) (Plan, error) {
	if strategy < CacheOnly || strategy > CacheThenNet {
		return Plan{}, ErrUnknownStrategy
	}

	switch phase {
	case PhaseInitial:
		switch strategy {
		case CacheOnly:
			return singleStepPlan(OriginCache), nil
		case NetOnly:
			return singleStepPlan(OriginNetwork), nil
		default:
			return previewThenNetworkPlan(true), nil
		}

	case PhaseForward:
		if strategy == CacheOnly {
			return emptyPlan(), nil
		}
		return singleStepPlan(OriginNetwork), nil

	case PhaseBackward:
		return emptyPlan(), nil

	default:
		return Plan{}, ErrUnknownPhase
	}
}
