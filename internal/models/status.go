// internal/models/status.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApprove  Status = "approve"
	StatusDecline  Status = "decline"
	StatusComplete Status = "complete"
)

var (
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

var allStatuses = []Status{StatusPending, StatusApprove, StatusDecline, StatusComplete}

// AllStatuses returns the statuses in display order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApprove, StatusDecline, StatusComplete:
		return true
	}
	return false
}

// OrPending reports an absent status as pending. It is a display rule only;
// callers must not write the result back to the backend.
func (s Status) OrPending() Status {
	if s == "" {
		return StatusPending
	}
	return s
}

func (s Status) String() string {
	return string(s)
}

// Label capitalises the status for badges and print output.
func (s Status) Label() string {
	v := string(s.OrPending())
	return strings.ToUpper(v[:1]) + v[1:]
}

// TransitionPolicy decides whether a status change may be dispatched.
type TransitionPolicy interface {
	Name() string
	Allow(from, to Status) error
}

const (
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)

// PermissivePolicy allows any valid status to move to any other valid status.
// Buttons in the console only hide the current status; nothing else is enforced.
var PermissivePolicy TransitionPolicy = permissivePolicy{}

// StrictPolicy only allows pending -> approve|decline and approve -> complete.
var StrictPolicy TransitionPolicy = strictPolicy{}

type permissivePolicy struct{}

func (permissivePolicy) Name() string { return PolicyPermissive }

func (permissivePolicy) Allow(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	return nil
}

var strictTransitions = map[Status]map[Status]bool{
	StatusPending:  {StatusApprove: true, StatusDecline: true},
	StatusApprove:  {StatusComplete: true},
	StatusDecline:  {},
	StatusComplete: {},
}

type strictPolicy struct{}

func (strictPolicy) Name() string { return PolicyStrict }

func (strictPolicy) Allow(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	from = from.OrPending()
	if !strictTransitions[from][to] {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	return nil
}

// PolicyByName resolves the configured policy name. Empty selects permissive.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyPermissive:
		return PermissivePolicy, nil
	case PolicyStrict:
		return StrictPolicy, nil
	}
	return nil, fmt.Errorf("unknown status policy: %s", name)
}

// NextStatuses lists the statuses an operator may pick for a record currently in from.
func NextStatuses(policy TransitionPolicy, from Status) []Status {
	if policy == nil {
		policy = PermissivePolicy
	}
	out := make([]Status, 0, len(allStatuses))
	for _, to := range allStatuses {
		if to == from.OrPending() {
			continue
		}
		if policy.Allow(from, to) == nil {
			out = append(out, to)
		}
	}
	return out
}
