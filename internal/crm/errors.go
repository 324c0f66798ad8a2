package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"
)

// Text codes attached to fatal errors returned by sync operations.
const (
	TextCodeExternal     = "CRM_EXTERNAL_FAILURE"
	TextCodeValidation   = "CRM_VALIDATION_FAILED"
	TextCodeUnauthorized = "CRM_UNAUTHORIZED"
)

var (
	// ErrNoSession is returned for calls made before any successful authentication.
	ErrNoSession = errors.New("crm: no active session")
	// ErrNotSynced is returned when an operation needs a remote id the entity does not have.
	ErrNotSynced = errors.New("crm: entity has no remote id")
)

// APIError is a non-2xx response from the CRM REST API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("crm: %s %q error: status %d: %s", e.Method, e.Path, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("crm: %s %q error: status %d", e.Method, e.Path, e.StatusCode)
}

// FieldError decodes the response body as a structured validation rejection.
// It returns false for 401s, non-4xx statuses and bodies without a message.
func (e *APIError) FieldError() (*FieldError, bool) {
	if e.StatusCode < 400 || e.StatusCode >= 500 || e.StatusCode == http.StatusUnauthorized {
		return nil, false
	}
	return parseFieldError(e.Body)
}

// AuthError means the CRM rejected the service credentials or could not be
// reached for authentication. It is never retried automatically.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "crm: authenticate: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FieldError is a validation rejection reported by the CRM.
type FieldError struct {
	Message string   `json:"message"`
	Code    string   `json:"errorCode"`
	Fields  []string `json:"fields"`
}

func (e *FieldError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("crm: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("crm: %s: %s (fields: %s)", e.Code, e.Message, strings.Join(e.Fields, ", "))
}

// parseFieldError accepts both a single error object and the CRM's array form,
// in which case the first element wins.
func parseFieldError(body []byte) (*FieldError, bool) {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return nil, false
	}

	var fe FieldError
	if body[0] == '[' {
		var list []FieldError
		if err := json.Unmarshal(body, &list); err != nil || len(list) == 0 {
			return nil, false
		}
		fe = list[0]
	} else if err := json.Unmarshal(body, &fe); err != nil {
		return nil, false
	}

	if fe.Message == "" {
		return nil, false
	}
	return &fe, true
}

// IsSessionExpired reports whether err means the current session is no longer
// usable: either there is none yet, or the CRM answered 401.
func IsSessionExpired(err error) bool {
	if errors.Is(err, ErrNoSession) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// fatal logs err with as much context as is available and wraps it in a
// go-errors envelope carrying the HTTP status.
func fatal(log *zap.Logger, op string, err error) error {
	message := "crm: " + op

	var authErr *AuthError
	if errors.As(err, &authErr) {
		log.Error("crm authentication failed", zap.String("op", op), zap.Error(err))
		return goerrors.Wrap(err, goerrors.CategoryAuth, message).
			WithCode(http.StatusUnauthorized).
			WithTextCode(TextCodeUnauthorized)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		log.Error("crm request failed",
			zap.String("op", op),
			zap.Int("status", apiErr.StatusCode),
			zap.ByteString("body", apiErr.Body),
		)
		category, textCode := goerrors.CategoryExternal, TextCodeExternal
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			category, textCode = goerrors.CategoryAuth, TextCodeUnauthorized
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			category, textCode = goerrors.CategoryValidation, TextCodeValidation
		}
		return goerrors.Wrap(err, category, message).
			WithCode(apiErr.StatusCode).
			WithTextCode(textCode).
			WithMetadata(map[string]any{
				"status": apiErr.StatusCode,
				"body":   string(apiErr.Body),
				"path":   apiErr.Path,
			})
	}

	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		log.Error("crm rejected payload", zap.String("op", op), zap.Error(err))
		return goerrors.Wrap(err, goerrors.CategoryValidation, message).
			WithCode(http.StatusUnprocessableEntity).
			WithTextCode(TextCodeValidation)
	}

	log.Error("crm request failed", zap.String("op", op), zap.Error(err))
	return goerrors.Wrap(err, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(TextCodeExternal)
}
