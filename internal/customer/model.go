package customer

import (
	"strings"
	"time"
)

// Customer is the persisted customer record. Field order is the JSON
// field order of API responses.
type Customer struct {
	Firstname            string `db:"firstname" json:"firstname"`
	Lastname             string `db:"lastname" json:"lastname"`
	SocialSecurityNumber int64  `db:"socialsecuritynumber" json:"socialsecuritynumber"`
	ID                   int64  `db:"customer_id" json:"id"`
}

// Fields holds the mutable customer fields of a create or update request.
// A nil pointer means the field was not supplied.
type Fields struct {
	Firstname            *string
	Lastname             *string
	SocialSecurityNumber *int64
}

// Apply overwrites the fields of c that are present in f.
func (f Fields) Apply(c *Customer) {
	if f.Firstname != nil {
		c.Firstname = *f.Firstname
	}
	if f.Lastname != nil {
		c.Lastname = *f.Lastname
	}
	if f.SocialSecurityNumber != nil {
		c.SocialSecurityNumber = *f.SocialSecurityNumber
	}
}

func (f Fields) validateCreate() error {
	var missing []string
	if f.Firstname == nil || blank(*f.Firstname) {
		missing = append(missing, "firstname")
	}
	if f.Lastname == nil || blank(*f.Lastname) {
		missing = append(missing, "lastname")
	}
	if f.SocialSecurityNumber == nil {
		missing = append(missing, "socialsecuritynumber")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "missing required fields"}
	}
	return nil
}

func (f Fields) validateUpdate() error {
	var empty []string
	if f.Firstname != nil && blank(*f.Firstname) {
		empty = append(empty, "firstname")
	}
	if f.Lastname != nil && blank(*f.Lastname) {
		empty = append(empty, "lastname")
	}
	if len(empty) > 0 {
		return &ValidationError{Fields: empty, Reason: "fields must not be blank"}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ChangeKind names a committed customer mutation.
type ChangeKind string

const (
	Created ChangeKind = "customer.created"
	Updated ChangeKind = "customer.updated"
	Deleted ChangeKind = "customer.deleted"
)

// Change describes a committed mutation. Customer is nil for deletes.
type Change struct {
	Kind     ChangeKind
	ID       int64
	Customer *Customer
	At       time.Time
}
