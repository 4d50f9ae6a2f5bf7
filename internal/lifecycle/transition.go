// Package lifecycle holds the dossier application-status state machine and the
// document requirement rules derived from a dossier's visa type.
// Everything here is pure: callers own loading and persisting dossiers.
package lifecycle

import (
	"errors"
	"fmt"

	"dossierapi/internal/model"
)

// ErrInvalidTransition is returned when a status change is not allowed by the state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions lists the allowed next statuses for each status.
// Statuses missing from the table or mapped to an empty list are terminal.
var transitions = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.StatusDraft: {
		model.StatusSubmitted,
		model.StatusCancelled,
	},
	model.StatusSubmitted: {
		model.StatusProcessing,
		model.StatusCancelled,
	},
	model.StatusProcessing: {
		model.StatusUnderReview,
		model.StatusAdditionalDocsRequired,
		model.StatusApproved,
		model.StatusRejected,
	},
	model.StatusUnderReview: {
		model.StatusAdditionalDocsRequired,
		model.StatusApproved,
		model.StatusRejected,
	},
	model.StatusAdditionalDocsRequired: {
		model.StatusProcessing,
		model.StatusCancelled,
	},
	model.StatusApproved:  nil,
	model.StatusRejected:  nil,
	model.StatusCancelled: nil,
}

// CanTransition reports whether a dossier in current may move to target.
func CanTransition(current, target model.ApplicationStatus) bool {
	for _, s := range transitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from current in one step.
func AllowedTransitions(current model.ApplicationStatus) []model.ApplicationStatus {
	next := transitions[current]
	out := make([]model.ApplicationStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.ApplicationStatus) bool {
	return len(transitions[s]) == 0
}

// Result describes an applied status change.
type Result struct {
	From model.ApplicationStatus `json:"from"`
	To   model.ApplicationStatus `json:"to"`
}

// TransitionError carries the rejected pair. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From model.ApplicationStatus
	To   model.ApplicationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move dossier from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Transition sets d.Status to target when the state machine allows it.
// On rejection d is left untouched.
func Transition(d *model.Dossier, target model.ApplicationStatus) (Result, error) {
	if !CanTransition(d.Status, target) {
		return Result{}, &TransitionError{From: d.Status, To: target}
	}
	res := Result{From: d.Status, To: target}
	d.Status = target
	return res, nil
}
