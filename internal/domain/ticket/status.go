package ticket

import "github.com/helpdesk/backend/internal/domain/shared"

// Status is the lifecycle state of a ticket
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// AllStatuses lists statuses in lifecycle order
var AllStatuses = []Status{StatusOpen, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed}

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Priority ranks ticket urgency
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// AllPriorities lists priorities from lowest to highest
var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IsValid reports whether the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority validates a priority, defaulting empty input to MEDIUM
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_PRIORITY", "Priority must be one of LOW, MEDIUM, HIGH, URGENT")
	}
	return p, nil
}

// Transition names a lifecycle action
type Transition string

const (
	TransitionAssign  Transition = "assign"
	TransitionConfirm Transition = "confirm"
	TransitionStart   Transition = "start"
	TransitionResolve Transition = "resolve"
	TransitionClose   Transition = "close"
)

// transitions is the complete lifecycle table: action -> from -> to.
// Anything absent is rejected.
var transitions = map[Transition]map[Status]Status{
	TransitionAssign: {
		StatusOpen:     StatusAssigned,
		StatusAssigned: StatusAssigned,
	},
	TransitionConfirm: {
		StatusAssigned: StatusAssigned,
	},
	TransitionStart: {
		StatusAssigned: StatusInProgress,
	},
	TransitionResolve: {
		StatusInProgress: StatusResolved,
	},
	TransitionClose: {
		StatusResolved: StatusClosed,
	},
}

// NextStatus looks up the target state of an action
func NextStatus(from Status, t Transition) (Status, error) {
	to, ok := transitions[t][from]
	if !ok {
		return "", shared.NewDomainError("INVALID_STATE", "Cannot "+string(t)+" a ticket in status "+string(from))
	}
	return to, nil
}

// CanTransition reports whether the action is allowed from the status
func CanTransition(from Status, t Transition) bool {
	_, err := NextStatus(from, t)
	return err == nil
}
