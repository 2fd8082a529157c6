package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/k3a/html2text"
	"github.com/tidwall/gjson"
)

const maxBodySnippet = 200

// APIError is a non-2xx reply from the prediction API.
type APIError struct {
	StatusCode int
	// Message is the server-supplied "error" field, empty when absent.
	Message string
	// Body is a plain-text snippet of the response for diagnostics.
	Body string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("prediction API returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("prediction API returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("prediction API returned HTTP %d", e.StatusCode)
}

func newAPIError(status int, body []byte, contentType string) *APIError {
	apiErr := &APIError{StatusCode: status}

	if gjson.ValidBytes(body) {
		apiErr.Message = gjson.GetBytes(body, "error").String()
	}

	text := string(body)
	if strings.Contains(contentType, "html") {
		text = html2text.HTML2Text(text)
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxBodySnippet {
		text = text[:maxBodySnippet]
	}
	apiErr.Body = text

	return apiErr
}

// ServerMessage extracts the server-supplied error message from err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// StatusCode reports the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
