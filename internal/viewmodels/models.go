package viewmodels

import (
	"fmt"
	"strings"
)

// Customer is a view model for customer display
type Customer struct {
	ID        int64
	Firstname string
	Lastname  string
	MaskedSSN string
}

// FullName returns "Lastname, Firstname", or whichever part is set.
func (c Customer) FullName() string {
	parts := make([]string, 0, 2)
	if c.Lastname != "" {
		parts = append(parts, c.Lastname)
	}
	if c.Firstname != "" {
		parts = append(parts, c.Firstname)
	}
	return strings.Join(parts, ", ")
}

// MaskSSN shows only the last four digits of a social security number.
func MaskSSN(ssn int64) string {
	if ssn < 0 {
		ssn = -ssn
	}
	return fmt.Sprintf("***-**-%04d", ssn%10000)
}
