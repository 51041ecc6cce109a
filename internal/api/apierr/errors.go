package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/golfclub/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeMemberNotFound           = "MEMBER_NOT_FOUND"
	CodeTournamentNotFound       = "TOURNAMENT_NOT_FOUND"
	CodeDuplicateContact         = "DUPLICATE_CONTACT"
	CodeInvalidWindow            = "INVALID_WINDOW"
	CodeInvalidCapacity          = "INVALID_CAPACITY"
	CodePastStart                = "PAST_START"
	CodeTerminalState            = "TERMINAL_STATE"
	CodeInsufficientParticipants = "INSUFFICIENT_PARTICIPANTS"
	CodeTournamentFull           = "TOURNAMENT_FULL"
	CodeMemberInactive           = "MEMBER_INACTIVE"
	CodeRegistrationClosed       = "REGISTRATION_CLOSED"
	CodeAlreadyRegistered        = "ALREADY_REGISTERED"
	CodeNotRegistered            = "NOT_REGISTERED"
	CodeConflictRetry            = "CONFLICT_RETRY"
	CodeNotFound                 = "NOT_FOUND"
	CodeInternalError            = "INTERNAL_ERROR"
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

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// Message returns the client-facing message WriteError would use for err
func Message(err error) string {
	return toHTTPError(err).apiError.Message
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Checked first so a wrapped version conflict is never reported as anything else
	case errors.Is(err, model.ErrConflictRetry), errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflictRetry, "Record was modified concurrently, retry the request"}}

	case errors.Is(err, model.ErrMemberNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMemberNotFound, "Member not found"}}
	case errors.Is(err, model.ErrTournamentNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTournamentNotFound, "Tournament not found"}}

	case errors.Is(err, model.ErrDuplicateContact):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateContact, "Email or phone number already in use"}}

	case errors.Is(err, model.ErrInvalidWindow):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidWindow, "End date must be on or after start date"}}
	case errors.Is(err, model.ErrInvalidCapacity):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCapacity, "Minimum participants cannot exceed maximum participants"}}
	case errors.Is(err, model.ErrPastStart):
		return &httpError{http.StatusBadRequest, APIError{CodePastStart, "Start date cannot be in the past"}}

	case errors.Is(err, model.ErrTerminalState):
		return &httpError{http.StatusConflict, APIError{CodeTerminalState, "Cannot change status of completed tournament"}}
	case errors.Is(err, model.ErrInsufficientParticipants):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientParticipants, "Cannot start tournament with insufficient participants"}}

	case errors.Is(err, model.ErrTournamentFull):
		return &httpError{http.StatusConflict, APIError{CodeTournamentFull, "Tournament has reached maximum participants"}}
	case errors.Is(err, model.ErrMemberInactive):
		return &httpError{http.StatusConflict, APIError{CodeMemberInactive, "Member is not active"}}
	case errors.Is(err, model.ErrRegistrationClosed):
		return &httpError{http.StatusConflict, APIError{CodeRegistrationClosed, "Tournament is not open for registration"}}
	case errors.Is(err, model.ErrAlreadyRegistered):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyRegistered, "Member is already registered"}}
	case errors.Is(err, model.ErrNotRegistered):
		return &httpError{http.StatusConflict, APIError{CodeNotRegistered, "Member is not registered for this tournament"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNotFoundError creates an error for an unknown route
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Resource not found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
