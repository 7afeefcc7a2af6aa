package deployer

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("invalid deploy configuration")

// ValidationError is returned when an environment would be rejected by pm2.
type ValidationError struct {
	Env    string
	Field  string
	Reason string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s.%s %s", ErrValidation, ve.Env, ve.Field, ve.Reason)
}

func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DeployError is any failure reported by the external deploy command.
type DeployError struct {
	Env        string
	Stderr     string
	Underlying error
}

func (de *DeployError) Error() string {
	if de.Stderr == "" {
		return fmt.Sprintf("deploy to %s failed: %v", de.Env, de.Underlying)
	}
	return fmt.Sprintf("deploy to %s failed: %v\n%s", de.Env, de.Underlying, de.Stderr)
}

func (de *DeployError) Unwrap() error {
	return de.Underlying
}
