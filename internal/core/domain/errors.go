package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown contact type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrValidation indicates the remote instance rejected a write as malformed
	// or policy-violating. Failures of this class are local to one place.
	ErrValidation = errors.New("validation failed")

	// ErrAccountCreation indicates a user account could not be created
	// after exhausting every recoverable retry.
	ErrAccountCreation = errors.New("could not create user")

	// Session Errors.

	// ErrNotLoggedIn indicates no stored session is available.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrAuthentication indicates the remote login did not yield a session token.
	ErrAuthentication = errors.New("failed to obtain token")

	// ErrNoFacility indicates the authenticated user is not assigned to a place.
	ErrNoFacility = errors.New("user does not have a facility_id")

	// ErrMissingRole indicates the authenticated user lacks the provisioning role.
	ErrMissingRole = errors.New("role does not have the required permissions")

	// ErrVersionIncompatible indicates the remote core version is below the supported minimum.
	ErrVersionIncompatible = errors.New("unsupported core version")

	// Remote Errors.

	// ErrAuthorization indicates the remote instance denied an operation.
	// The session cannot proceed and the whole run is aborted.
	ErrAuthorization = errors.New("not authorized")

	// ErrTransport indicates a network or connectivity failure.
	ErrTransport = errors.New("transport failure")
)

// RejectionReason classifies a validation-class rejection from the remote instance.
type RejectionReason int

const (
	// RejectionOther is any rejection that cannot be recovered by mutating the payload.
	RejectionOther RejectionReason = iota

	// RejectionUsernameTaken indicates the requested username already exists.
	RejectionUsernameTaken

	// RejectionWeakPassword indicates the password failed the strength policy.
	RejectionWeakPassword
)

// String returns the reason label used in logs and metrics.
func (r RejectionReason) String() string {
	switch r {
	case RejectionUsernameTaken:
		return "username_taken"
	case RejectionWeakPassword:
		return "weak_password"
	default:
		return "other"
	}
}

// RejectionError is a validation-class rejection carrying its classified reason.
// It matches ErrValidation with errors.Is.
type RejectionError struct {
	Reason  RejectionReason
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected (%s): %s", e.Reason, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *RejectionError) Unwrap() error {
	return ErrValidation
}

// AsRejection returns the RejectionError wrapped in err, if any.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsFatal reports whether err must abort a whole upload run rather than a single place.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuthorization) || errors.Is(err, ErrTransport)
}
