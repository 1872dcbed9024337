package customer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no customer exists for the requested id.
var ErrNotFound = errors.New("customer not found")

// ValidationError reports a request that cannot be applied as given.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
