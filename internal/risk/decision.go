package risk

// Decision is the tagged result every gate returns. A deferred decision is a
// policy-correct no-op, not an error: the caller schedules a cooldown and
// moves on. Misconfigured marks deferrals caused by missing wiring (risk
// settings or symbol attributes not set) so they can be told apart from
// market-condition defers in the logs.
type Decision struct {
	Admitted      bool
	Reason        string
	Misconfigured bool
}

func Admit(reason string) Decision {
	return Decision{Admitted: true, Reason: reason}
}

func Defer(reason string) Decision {
	return Decision{Reason: reason}
}

func DeferMisconfigured(reason string) Decision {
	return Decision{Reason: reason, Misconfigured: true}
}
