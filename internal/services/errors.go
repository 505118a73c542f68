// Package services defines the business logic for medicines, dose logs,
// caregivers, adherence scoring, and the side-effect triage pipeline.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyMessage is returned when a chat submission contains no text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a chat submission exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("message too long")

	// ErrMedicineNotFound indicates that the requested medicine does not
	// exist or is not accessible to the current user.
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrDoseNotFound indicates that the requested dose log does not exist
	// or is not accessible to the current user.
	ErrDoseNotFound = errors.New("dose log not found")

	// ErrDoseAlreadyLogged is returned when a status transition is attempted
	// on a dose log that already left the pending state.
	ErrDoseAlreadyLogged = errors.New("dose already logged")

	// ErrInvalidDoseStatus is returned when a transition target is not one of
	// taken, missed, or skipped.
	ErrInvalidDoseStatus = errors.New("invalid dose status")

	// ErrCaregiverNotFound indicates that the requested caregiver does not
	// exist or is not accessible to the current user.
	ErrCaregiverNotFound = errors.New("caregiver not found")

	// ErrInvalidSeverity is returned when a severity filter is outside the
	// allowed set (mild, moderate, severe).
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrAdherenceUnavailable indicates the dose history could not be
	// fetched. It is deliberately distinct from an empty history, which
	// scores 100; a fetch failure must never be presented as a score.
	ErrAdherenceUnavailable = errors.New("adherence history unavailable")
)
