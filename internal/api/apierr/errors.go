package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/services/auth"
	"github.com/competecore/competecore/internal/services/matches"
	"github.com/competecore/competecore/internal/validate"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMatchNotFound      = "MATCH_NOT_FOUND"
	CodeMatchNotOpen       = "MATCH_NOT_OPEN"
	CodeCannotJoinOwnMatch = "CANNOT_JOIN_OWN_MATCH"
	CodeMatchNotInProgress = "MATCH_NOT_IN_PROGRESS"
	CodeNotParticipant     = "NOT_PARTICIPANT"
	CodeInvalidWinner      = "INVALID_WINNER"
	CodeInviteCodeNotFound = "INVITE_CODE_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *validate.Error
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, ve.Error(), ve.Field}}
	}

	switch {
	// Model errors
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeUserNotFound, Message: "User not found"}}
	case errors.Is(err, model.ErrUserExists):
		return &httpError{http.StatusConflict, APIError{Code: CodeUserExists, Message: "User already exists with this email or username"}}
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeMatchNotFound, Message: "Match not found"}}
	case errors.Is(err, model.ErrInviteCodeNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeInviteCodeNotFound, Message: "No match with this invite code"}}
	case errors.Is(err, model.ErrMatchNotOpen):
		return &httpError{http.StatusConflict, APIError{Code: CodeMatchNotOpen, Message: "Match is no longer open"}}
	case errors.Is(err, model.ErrCannotJoinOwnMatch):
		return &httpError{http.StatusForbidden, APIError{Code: CodeCannotJoinOwnMatch, Message: "You cannot join your own match"}}
	case errors.Is(err, model.ErrMatchNotInProgress):
		return &httpError{http.StatusConflict, APIError{Code: CodeMatchNotInProgress, Message: "Match is not in progress"}}
	case errors.Is(err, model.ErrNotParticipant):
		return &httpError{http.StatusForbidden, APIError{Code: CodeNotParticipant, Message: "Only participants can report a result"}}
	case errors.Is(err, model.ErrInvalidWinner):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidWinner, Message: "Winner must be a participant in the match"}}
	case errors.Is(err, model.ErrConflict):
		return &httpError{http.StatusConflict, APIError{Code: CodeConflict, Message: "The resource was modified concurrently, try again"}}

	// Service errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired session"}}
	case errors.Is(err, matches.ErrInviteCodeExhausted):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeServiceUnavailable, Message: "Could not allocate an invite code, try again"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
