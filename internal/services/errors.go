package services

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateApplication = errors.New("application already exists")
	ErrIneligibleUser       = errors.New("user does not meet the requirements for this flair")
	ErrNotFound             = errors.New("not found")
	ErrRateLimited          = errors.New("you set your flair too recently, please try again in a few minutes")
	ErrUnexpectedBadge      = errors.New("unexpected badge")
)

// DependencyError wraps a failed call to a store or the platform.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var dep *DependencyError
	if errors.As(err, &dep) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}
