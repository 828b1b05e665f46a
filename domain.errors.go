package main

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrInvalidDate    = errors.New("invalid date")
	ErrCorruptRecord  = errors.New("corrupt book record")
	ErrInvalidStorage = errors.New("invalid storage configuration")
)

// NotFoundError is returned when no book has the requested id.
// It matches ErrBookNotFound with errors.Is.
type NotFoundError struct {
	ID int64
}

// NewNotFoundError returns a not found error for the given book id.
func NewNotFoundError(id int64) error {
	return &NotFoundError{ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Book with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrBookNotFound
}

// ConfigurationError describes an unusable storage configuration string.
type ConfigurationError struct {
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("storage %q: %s", e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidStorage
}

type fieldTooLongError string

func (f fieldTooLongError) Error() string {
	return fmt.Sprintf("%s must not exceed %d characters", string(f), MaxFieldLength)
}
