package cht

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/usermgr/internal/core/domain"
)

// APIError represents an unsuccessful CHT API response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cht: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a document was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// classify turns an unsuccessful response into a domain error that keeps
// the APIError in its chain.
func classify(statusCode int, body []byte, url string) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    errorMessage(body),
		URL:        url,
	}

	switch {
	case statusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %w", &domain.RejectionError{
			Reason:  rejectionReason(apiErr.Message),
			Message: apiErr.Message,
		}, apiErr)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAuthorization, apiErr)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, apiErr)
	case statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %w", domain.ErrTransport, apiErr)
	default:
		return apiErr
	}
}

// errorMessage extracts the message from the error bodies the CHT API
// returns: {"error":{"message":...}}, {"error":...}, {"message":...} or
// plain text.
func errorMessage(body []byte) string {
	var structured struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(structured.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(structured.Error, &flat) == nil && flat != "" {
			return flat
		}
		if structured.Message != "" {
			return structured.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// rejectionReason maps a rejection message to the reason the account
// provisioner can act on.
func rejectionReason(message string) domain.RejectionReason {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "already taken"):
		return domain.RejectionUsernameTaken
	case strings.Contains(lower, "password"):
		return domain.RejectionWeakPassword
	default:
		return domain.RejectionOther
	}
}
