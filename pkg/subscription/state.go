package subscription

import "slices"

// State is the lifecycle state of a subscription. It is derived from the
// stored fields and never persisted.
type State string

const (
	StateFreeInactive State = "free_inactive"
	StateTrialing     State = "trialing"
	StateActivePaid   State = "active_paid"
	StateExpired      State = "expired"
)

func (s State) String() string { return string(s) }

// Event triggers a lifecycle transition.
type Event string

const (
	EventActivate   Event = "activate"
	EventStartTrial Event = "start_trial"
	EventExpire     Event = "expire"
	EventUpgrade    Event = "upgrade"
	EventDowngrade  Event = "downgrade"
	EventDeactivate Event = "deactivate"
)

func (e Event) String() string { return string(e) }

// transitions lists the allowed target states per [from][event].
// Multiple targets exist where the mutation decides the outcome
// (a downgrade to Free lands in free_inactive).
var transitions = map[State]map[Event][]State{
	StateFreeInactive: {
		EventActivate:   {StateActivePaid},
		EventStartTrial: {StateTrialing},
		EventUpgrade:    {StateActivePaid},
		EventDeactivate: {StateFreeInactive},
	},
	StateTrialing: {
		EventActivate:   {StateActivePaid},
		EventUpgrade:    {StateActivePaid},
		EventDeactivate: {StateFreeInactive},
	},
	StateActivePaid: {
		EventActivate:   {StateActivePaid},
		EventUpgrade:    {StateActivePaid},
		EventDowngrade:  {StateActivePaid, StateFreeInactive},
		EventDeactivate: {StateFreeInactive},
	},
	StateExpired: {
		EventExpire: {StateFreeInactive},
	},
}

// CanFire reports whether the event is defined for the state at all.
func CanFire(from State, event Event) bool {
	_, ok := transitions[from][event]
	return ok
}

// checkTransition verifies that moving from -> to on event is declared.
func checkTransition(from State, event Event, to State) error {
	targets, ok := transitions[from][event]
	if !ok || !slices.Contains(targets, to) {
		return &TransitionError{State: from, Event: event}
	}
	return nil
}
