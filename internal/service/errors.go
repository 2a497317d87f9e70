package service

import "errors"

// Operation errors returned to callers. Handlers map these onto HTTP status
// codes; everything else surfaces as an internal error.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance for entry fee")
	ErrAlreadyQueued       = errors.New("user is already in the queue")
	ErrAlreadyInMatch      = errors.New("user is already in an active match")
	ErrInvalidEntryFee     = errors.New("entry fee must be positive")

	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchNotActive   = errors.New("match is not active")
	ErrNotParticipant   = errors.New("user is not a participant in this match")
	ErrAlreadySubmitted = errors.New("user has already submitted for this match")

	ErrOpponentNotFound    = errors.New("queued opponent no longer exists")
	ErrProblemCatalogEmpty = errors.New("no problems available for matchmaking")
)
