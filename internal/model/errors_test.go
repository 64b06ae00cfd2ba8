package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds_Is(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"not found", &NotFoundError{Kind: "application", ID: "a"}, ErrNotFound, true},
		{"wrapped not found", fmt.Errorf("dequeue: %w", &NotFoundError{Kind: "application", ID: "a"}), ErrNotFound, true},
		{"invalid state", &InvalidStateError{Op: "dequeue", ID: "a", Status: StatusApplied}, ErrInvalidState, true},
		{"invalid state is not not-found", &InvalidStateError{Op: "dequeue", ID: "a"}, ErrNotFound, false},
		{"persistence", &PersistenceError{Op: "update", ID: "a", Err: cause}, ErrPersistence, true},
		{"persistence unwraps cause", &PersistenceError{Op: "update", ID: "a", Err: cause}, cause, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestStatus_TerminalAndLabel(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
		settled  bool
		label    string
	}{
		{StatusCart, false, false, "Response"},
		{StatusApplied, false, false, "Response"},
		{StatusInterviewRequested, false, true, "Assignment"},
		{StatusInterviewScheduled, true, true, "Interview Planning"},
		{StatusRejected, true, true, "Not Selected"},
		{StatusOfferReceived, true, true, "Contract Signing"},
		{Status("bogus"), false, false, "Response"},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.Settled(); got != tt.settled {
			t.Errorf("%s.Settled() = %v, want %v", tt.status, got, tt.settled)
		}
		if got := tt.status.Label(); got != tt.label {
			t.Errorf("%s.Label() = %q, want %q", tt.status, got, tt.label)
		}
	}
}
