package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists with this email or username")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Match errors
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchNotOpen       = errors.New("match is not open")
	ErrCannotJoinOwnMatch = errors.New("cannot join your own match")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrNotParticipant     = errors.New("user is not a participant in this match")
	ErrInvalidWinner      = errors.New("winner must be a match participant")
	ErrInviteCodeNotFound = errors.New("invite code not found")

	// Storage errors
	ErrConflict = errors.New("concurrent update conflict")
)
