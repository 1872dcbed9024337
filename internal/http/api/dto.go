package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"

	"winsbygroup.com/custserver/internal/customer"
)

// CustomerRequest is the body of POST and PUT. Absent fields stay nil.
// ID is accepted for compatibility with clients that echo a fetched record
// back, but the path (or the store, on create) decides the id.
type CustomerRequest struct {
	Firstname            *string `json:"firstname"`
	Lastname             *string `json:"lastname"`
	SocialSecurityNumber *int64  `json:"socialsecuritynumber"`
	ID                   *int64  `json:"id"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeCustomerRequest reads exactly one JSON object and rejects unknown
// fields or trailing data.
func decodeCustomerRequest(r io.Reader) (CustomerRequest, error) {
	var req CustomerRequest

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errEmptyBody
		}
		return req, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("unexpected data after JSON object")
	}
	return req, nil
}

// Fields converts the request into service input. Names are stored in
// Unicode normalization form C.
func (r CustomerRequest) Fields() customer.Fields {
	return customer.Fields{
		Firstname:            nfc(r.Firstname),
		Lastname:             nfc(r.Lastname),
		SocialSecurityNumber: r.SocialSecurityNumber,
	}
}

func nfc(s *string) *string {
	if s == nil {
		return nil
	}
	n := norm.NFC.String(*s)
	return &n
}
