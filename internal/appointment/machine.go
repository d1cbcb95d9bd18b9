package appointment

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("actor may not perform this transition")
)

type transition struct {
	from Status
	to   Status
}

// actorRule lists who may trigger a transition. owner covers the patient the
// appointment belongs to; other patients are always rejected.
type actorRule struct {
	provider bool
	admin    bool
	owner    bool // owning patient
}

var transitions = map[transition]actorRule{
	{StatusPending, StatusConfirmed}:   {provider: true, admin: true},
	{StatusPending, StatusCancelled}:   {provider: true, admin: true, owner: true},
	{StatusConfirmed, StatusCompleted}: {provider: true, admin: true},
	{StatusConfirmed, StatusCancelled}: {provider: true, admin: true, owner: true},
}

// Transition decides whether the given actor may move an appointment from
// current to target. It is a pure function: callers load state, ask, then
// persist. Undefined transitions fail with ErrInvalidTransition regardless of
// actor; defined ones fail with ErrForbidden when the actor lacks authority.
func Transition(current, target Status, role Role, isOwner bool) error {
	rule, ok := transitions[transition{current, target}]
	if !ok {
		return ErrInvalidTransition
	}
	switch role {
	case RoleAdmin:
		if rule.admin {
			return nil
		}
	case RoleProvider:
		if rule.provider {
			return nil
		}
	case RolePatient:
		if rule.owner && isOwner {
			return nil
		}
	}
	return ErrForbidden
}
