package db

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCourseNotFound is returned when a course lookup finds no record.
var ErrCourseNotFound = errors.New("course not found")

// ErrUnavailable is returned when the database cannot be reached.
var ErrUnavailable = errors.New("database unavailable")

// wrapQueryError classifies low-level query failures so callers can use
// errors.Is instead of string matching.
func wrapQueryError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "connection") || strings.Contains(msg, "closed") ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "refused") {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
