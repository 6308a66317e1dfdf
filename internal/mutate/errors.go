package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrInvalid  = errors.New("invalid")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

type ExistsError struct {
	Kind  string
	ID    string
	Owner string
}

func (e ExistsError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s %q already exists for %s", e.Kind, e.ID, e.Owner)
	}
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

func (e ExistsError) Is(target error) bool { return target == ErrExists }

type InvalidError struct {
	Msg string
}

func (e InvalidError) Error() string { return e.Msg }

func (e InvalidError) Is(target error) bool { return target == ErrInvalid }

func invalidf(format string, args ...any) error {
	return InvalidError{Msg: fmt.Sprintf(format, args...)}
}
