package panel

import "errors"

// ErrUnavailable is returned by editing actions while the snapshot source is missing.
var ErrUnavailable = errors.New("schedule data unavailable")

// ValidationError is a local input rejection. No command is issued and no state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a local validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
