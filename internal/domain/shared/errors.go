// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "user", "matching", "hackathon"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound        = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists   = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidGitHubLogin  = NewDomainError("user", "Validate", ErrInvalidID, "invalid GitHub login")
	ErrInvalidEmail        = NewDomainError("user", "Validate", ErrInvalidFormat, "invalid email address")
	ErrUserNotActive       = NewDomainError("user", "CheckStatus", ErrInvalidState, "user is not active")
	ErrGitHubAlreadyLinked = NewDomainError("user", "Link", ErrAlreadyExists, "GitHub account already linked")
	ErrGitHubNotLinked     = NewDomainError("user", "Sync", ErrInvalidState, "GitHub account is not linked")
	ErrInvalidUserStatus   = NewDomainError("user", "UpdateStatus", ErrStateTransition, "invalid user status transition")
)

// Rating domain errors
var (
	ErrInvalidMMR        = NewDomainError("rating", "Validate", ErrValueOutOfRange, "invalid MMR value")
	ErrInvalidCounters   = NewDomainError("rating", "Validate", ErrNegativeValue, "activity counters cannot be negative")
	ErrSnapshotNotFound  = NewDomainError("rating", "Find", ErrNotFound, "rating snapshot not found")
	ErrInvalidTierConfig = NewDomainError("rating", "Validate", ErrInvalidState, "tier table misconfigured")
)

// Matching domain errors
var (
	ErrNoMatchFound         = NewDomainError("matching", "Search", ErrNotFound, "no suitable teammate found")
	ErrInvalidSearchFilters = NewDomainError("matching", "Validate", ErrInvalidInput, "invalid search filters")
	ErrRequesterMissing     = NewDomainError("matching", "Search", ErrInvalidInput, "requester profile is required")
)

// Hackathon domain errors
var (
	ErrHackathonNotFound     = NewDomainError("hackathon", "Find", ErrNotFound, "hackathon not found")
	ErrHackathonClosed       = NewDomainError("hackathon", "Register", ErrInvalidState, "hackathon is not open for registration")
	ErrAlreadyRegistered     = NewDomainError("hackathon", "Register", ErrAlreadyExists, "already registered for hackathon")
	ErrInvalidPlacement      = NewDomainError("hackathon", "RecordResult", ErrValueOutOfRange, "invalid placement")
	ErrResultAlreadyRecorded = NewDomainError("hackathon", "RecordResult", ErrAlreadyProcessed, "result already recorded")
)

// Team domain errors
var (
	ErrTeamNotFound        = NewDomainError("team", "Find", ErrNotFound, "team not found")
	ErrTeamFull            = NewDomainError("team", "Join", ErrInvalidState, "team is full")
	ErrAlreadyTeamMember   = NewDomainError("team", "Join", ErrAlreadyExists, "already a team member")
	ErrTeamUpNotFound      = NewDomainError("team", "FindRequest", ErrNotFound, "team-up request not found")
	ErrTeamUpFinalized     = NewDomainError("team", "Respond", ErrAlreadyProcessed, "team-up request already finalized")
	ErrTeamUpExpired       = NewDomainError("team", "Respond", ErrExpired, "team-up request expired")
	ErrTeamUpSelfRequest   = NewDomainError("team", "Request", ErrInvalidInput, "cannot send team-up request to yourself")
	ErrTeamUpDuplicate     = NewDomainError("team", "Request", ErrAlreadyExists, "pending team-up request already exists")
	ErrTeamUpNotAddressee  = NewDomainError("team", "Respond", ErrForbidden, "user is not the request receiver")
	ErrTeamUpBelowMinScore = NewDomainError("team", "Request", ErrValueOutOfRange, "compatibility below requester threshold")
)

// Conversation domain errors
var (
	ErrConversationNotFound = NewDomainError("conversation", "Find", ErrNotFound, "conversation not found")
	ErrMessageEmpty         = NewDomainError("conversation", "Send", ErrEmptyValue, "message body cannot be empty")
	ErrNotParticipant       = NewDomainError("conversation", "Send", ErrForbidden, "user is not a conversation participant")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrChannelDisabled      = NewDomainError("notification", "Send", ErrInvalidState, "notification channel disabled")
	ErrDeliveryFailed       = NewDomainError("notification", "Send", ErrExternalService, "notification delivery failed")
)

// Auth errors
var (
	ErrInvalidCredentials = NewDomainError("auth", "SignIn", ErrUnauthorized, "invalid email or password")
	ErrSessionNotFound    = NewDomainError("auth", "Session", ErrUnauthorized, "session not found or expired")
	ErrWeakPassword       = NewDomainError("auth", "SignUp", ErrValidation, "password does not meet requirements")
)
