package model

import (
	"context"
	"time"
)

// Status is the lifecycle state of an Application.
type Status string

const (
	StatusCart               Status = "cart"
	StatusApplied            Status = "applied"
	StatusInterviewRequested Status = "interview_requested"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusRejected           Status = "rejected"
	StatusOfferReceived      Status = "offer_received"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCart, StatusApplied, StatusInterviewRequested,
		StatusInterviewScheduled, StatusRejected, StatusOfferReceived:
		return true
	}
	return false
}

// Terminal reports whether the engine will not move s any further.
// interview_requested is still "in progress" for the user but gets no
// automated follow-up either, see Settled.
func (s Status) Terminal() bool {
	switch s {
	case StatusInterviewScheduled, StatusRejected, StatusOfferReceived:
		return true
	}
	return false
}

// Settled reports whether s has left cart and applied.
func (s Status) Settled() bool {
	return s != StatusCart && s != StatusApplied && s.Valid()
}

// Label is the inbox badge shown for a response that produced s.
func (s Status) Label() string {
	switch s {
	case StatusInterviewRequested:
		return "Assignment"
	case StatusInterviewScheduled:
		return "Interview Planning"
	case StatusOfferReceived:
		return "Contract Signing"
	case StatusRejected:
		return "Not Selected"
	default:
		return "Response"
	}
}

// StatusDetail is the free-form payload written alongside a simulated transition.
type StatusDetail struct {
	Message       string `json:"message"`
	EmailReceived bool   `json:"email_received"`
}

// Application is a user's relationship to one posting.
type Application struct {
	ID                string
	UserID            string
	JobID             string
	Position          string
	Company           string
	Status            Status
	CreatedAt         time.Time
	ApplicationSentAt *time.Time // set when the batch apply moves it out of cart
	LastStatusUpdate  *time.Time
	Detail            *StatusDetail
}

// Direction of an inbox message. Simulated responses are always received.
type Direction string

const (
	DirectionReceived Direction = "received"
	DirectionSent     Direction = "sent"
)

// InboxMessage is an employer email tied to exactly one status transition.
type InboxMessage struct {
	ID              string
	ApplicationID   string
	UserID          string
	From            string
	To              string
	Subject         string
	Body            string
	ReceivedAt      time.Time
	StatusExtracted Status
	Direction       Direction
}

// ApplicationStore is the persistence collaborator of the lifecycle engine.
// Lookups of unknown ids return a *NotFoundError.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	UpdateApplication(ctx context.Context, app *Application) error
	DeleteApplication(ctx context.Context, id string) error
	// ListApplications returns the user's applications, newest first. No
	// statuses means all of them.
	ListApplications(ctx context.Context, userID string, statuses ...Status) ([]Application, error)

	// RecordResponse stores app's new status together with the message that
	// announced it. Either both are written or neither is. An unknown app is
	// a *NotFoundError; one no longer applied is an *InvalidStateError.
	RecordResponse(ctx context.Context, app *Application, msg *InboxMessage) error
	// ListInboxMessages returns the user's messages, most recent first.
	ListInboxMessages(ctx context.Context, userID string) ([]InboxMessage, error)
}
