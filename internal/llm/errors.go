package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelBackend marks chat model failures so callers can degrade to a
// canned answer instead of surfacing raw API errors to users.
var ErrModelBackend = errors.New("model backend error")

// ErrFatalAPI marks failures that retrying cannot fix: invalid
// credentials, exhausted quota, unknown model.
var ErrFatalAPI = errors.New("fatal API error")

// isFatalAPIError reports whether the failure is permanent. Provider SDKs
// return plain errors, so classification is by message.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"api key",
		"authentication",
		"unauthorized",
		"401",
		"403",
		"quota",
		"billing",
		"model not found",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func wrapBackendError(op string, err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%s: %w: %w: %w", op, ErrModelBackend, ErrFatalAPI, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrModelBackend, err)
}
