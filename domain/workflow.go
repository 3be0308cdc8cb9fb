package domain

import "strings"

// WorkflowEvent is an action that may move a task between statuses.
type WorkflowEvent string

const (
	EventCreated          WorkflowEvent = "created"
	EventClaimed          WorkflowEvent = "claimed"
	EventSubmitted        WorkflowEvent = "submitted"
	EventApproved         WorkflowEvent = "approved"
	EventChangesRequested WorkflowEvent = "changes_requested"
)

// Decision is a reviewer's verdict on submitted work.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionRequestChanges Decision = "request_changes"
)

// ParseDecision accepts the canonical decision names, ignoring case.
func ParseDecision(value string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DecisionApprove):
		return DecisionApprove, nil
	case string(DecisionRequestChanges):
		return DecisionRequestChanges, nil
	default:
		return "", ErrInvalidDecision
	}
}

// Event returns the workflow event produced by the decision.
func (d Decision) Event() WorkflowEvent {
	if d == DecisionApprove {
		return EventApproved
	}
	return EventChangesRequested
}

type transitionKey struct {
	from  TaskStatus
	event WorkflowEvent
}

// Needs Changes has no outgoing edge.
var transitions = map[transitionKey]TaskStatus{
	{StatusNotDone, EventClaimed}:             StatusInProgress,
	{StatusInProgress, EventSubmitted}:        StatusInProgress,
	{StatusInProgress, EventApproved}:         StatusDone,
	{StatusInProgress, EventChangesRequested}: StatusNeedsChanges,
}

// Transition returns the status reached by applying event in status from.
func Transition(from TaskStatus, event WorkflowEvent) (TaskStatus, error) {
	to, ok := transitions[transitionKey{from: from, event: event}]
	if !ok {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// CanClaim checks the claim guard: volunteer unset and status Not Done.
func (t *Task) CanClaim() error {
	if t == nil {
		return ErrTaskNotFound
	}
	if t.IsClaimed() {
		return ErrAlreadyClaimed
	}
	_, err := Transition(t.Status, EventClaimed)
	return err
}

// CanSubmit checks that the actor is the task's volunteer and work is in progress.
func (t *Task) CanSubmit(actor Actor) error {
	if t == nil {
		return ErrTaskNotFound
	}
	if !t.IsClaimed() || t.Volunteer != actor.Username {
		return ErrForbidden
	}
	_, err := Transition(t.Status, EventSubmitted)
	return err
}

// CanReview checks that the actor is the assigned reviewer and work was submitted.
func (t *Task) CanReview(actor Actor, decision Decision) error {
	if t == nil {
		return ErrTaskNotFound
	}
	if t.Reviewer != actor.Username {
		return ErrForbidden
	}
	if !t.IsSubmitted() {
		return ErrNotSubmitted
	}
	_, err := Transition(t.Status, decision.Event())
	return err
}
