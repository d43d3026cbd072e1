package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/krshsl/interview-coach/llm"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnsupportedType    = errors.New("only PDF and DOCX files are supported")
	ErrEmptyExtraction    = errors.New("could not extract text from file")
	ErrResumeNotFound     = errors.New("resume not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionCompleted   = errors.New("session is already completed")
	ErrInvalidAgentType   = errors.New("unknown agent type")
	ErrEmptyMessage       = errors.New("message content is empty")
	ErrRateLimited        = errors.New("too many attempts, try again later")
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// HTTPError carries the status and code a domain error maps to.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &validationErrs):
		return NewHTTPError(http.StatusBadRequest, validationErrs.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrDuplicateEmail):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateEmail.Error(), "DUPLICATE_EMAIL")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusUnauthorized, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUnsupportedType):
		return NewHTTPError(http.StatusUnsupportedMediaType, ErrUnsupportedType.Error(), "UNSUPPORTED_TYPE")
	case errors.Is(err, ErrEmptyExtraction):
		return NewHTTPError(http.StatusUnprocessableEntity, ErrEmptyExtraction.Error(), "EMPTY_EXTRACTION")
	case errors.Is(err, ErrResumeNotFound):
		return NewHTTPError(http.StatusNotFound, ErrResumeNotFound.Error(), "RESUME_NOT_FOUND")
	case errors.Is(err, ErrSessionNotFound):
		return NewHTTPError(http.StatusNotFound, ErrSessionNotFound.Error(), "SESSION_NOT_FOUND")
	case errors.Is(err, ErrSessionCompleted):
		return NewHTTPError(http.StatusBadRequest, ErrSessionCompleted.Error(), "SESSION_COMPLETED")
	case errors.Is(err, ErrInvalidAgentType):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidAgentType.Error(), "INVALID_AGENT_TYPE")
	case errors.Is(err, ErrEmptyMessage):
		return NewHTTPError(http.StatusBadRequest, ErrEmptyMessage.Error(), "EMPTY_MESSAGE")
	case errors.Is(err, ErrRateLimited):
		return NewHTTPError(http.StatusTooManyRequests, ErrRateLimited.Error(), "RATE_LIMITED")
	case errors.Is(err, llm.ErrGenerationFailure):
		return NewHTTPError(http.StatusBadGateway, "reply generation failed", "GENERATION_FAILURE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	httpErr := MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "status", httpErr.StatusCode)
	}
	writeJSON(w, httpErr.StatusCode, ErrorResponse{Detail: httpErr.Message, Code: httpErr.Code})
}

var validate = validator.New()

// decodeAndValidate reads a JSON body into v and checks its validate tags.
func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid request body", "INVALID_BODY")
	}
	return validate.Struct(v)
}
