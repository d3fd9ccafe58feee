package domain

import "errors"

// Sentinel errors for the application. Handlers map these to ack failures;
// anything outside this set is treated as an infrastructure error and is not
// surfaced to clients verbatim.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotParticipant = errors.New("you are not a participant in this conversation")
	ErrInternal       = errors.New("internal server error")
)
