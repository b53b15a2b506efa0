package domain

// AISettings is the clinic-wide subset of configuration the resolver
// consults. Both flags are independent; when both are set, "all new leads"
// wins.
type AISettings struct {
	ActiveForAllNewLeads bool
	ActiveForAdLeadsOnly bool
}

// Decision is the outcome of one resolution attempt.
//
// Persist is false in two cases: the lead already carries a sticky value
// (branch 1), or clinic settings were unavailable and the fail-safe default
// applies without being written, so a later attempt can still resolve
// properly.
type Decision struct {
	Enabled bool
	Persist bool
}

// ResolveAIActivation computes the effective AI auto-response state for a
// lead. Branches are evaluated in strict order and short-circuit:
//
//  1. a non-nil stored value is sticky and is returned unchanged
//  2. unavailable settings fail safe to disabled, without persisting
//  3. clinic enables AI for all new leads
//  4. clinic enables AI for ad-sourced leads and the origin classifies as ads
//  5. default: disabled
//
// The function is pure; persisting the decision is the caller's job and must
// use a conditional write so a concurrent manual toggle is never clobbered.
func ResolveAIActivation(current *bool, origin *string, settings *AISettings) Decision {
	if current != nil {
		return Decision{Enabled: *current, Persist: false}
	}

	if settings == nil {
		return Decision{Enabled: false, Persist: false}
	}

	if settings.ActiveForAllNewLeads {
		return Decision{Enabled: true, Persist: true}
	}

	if settings.ActiveForAdLeadsOnly && IsAdSourced(origin) {
		return Decision{Enabled: true, Persist: true}
	}

	return Decision{Enabled: false, Persist: true}
}
