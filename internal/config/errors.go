package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigNotFound      = errors.New("configuration not found")
	ErrUnsupportedFormat   = errors.New("unsupported configuration format")
	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrMalformed           = errors.New("malformed configuration file")
)

// NotFoundError is returned when an explicitly given config path does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("configuration file %s does not exist", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrConfigNotFound
}

// ParseError wraps a parser diagnostic for a config file.
type ParseError struct {
	Path       string
	Underlying error
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrMalformed, pe.Path, pe.Underlying)
}

func (pe *ParseError) Unwrap() error {
	return pe.Underlying
}

func (pe *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

// EnvironmentNotFoundError names the missing environment and the ones available.
type EnvironmentNotFoundError struct {
	Env       string
	Available []string
}

func (e *EnvironmentNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("environment %q is not defined", e.Env)
	}
	return fmt.Sprintf("environment %q is not defined (available: %s)", e.Env, strings.Join(e.Available, ", "))
}

func (e *EnvironmentNotFoundError) Is(target error) bool {
	return target == ErrEnvironmentNotFound
}
