// Package storage keeps named filter views and the last browsed filter in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidViewName = errors.New("invalid view name")
)

var viewNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.-]{0,63}$`)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateViewName allows short names of letters, digits, spaces and _.-
func validateViewName(name string) error {
	if !viewNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidViewName, name)
	}
	return nil
}
