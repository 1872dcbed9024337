package web

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"winsbygroup.com/custserver/internal/customer"
	vm "winsbygroup.com/custserver/internal/viewmodels"
)

// Re-export types for convenience
type Customer = vm.Customer

// FromDomainCustomer converts a domain customer to view model
func FromDomainCustomer(c customer.Customer) vm.Customer {
	return vm.Customer{
		ID:        c.ID,
		Firstname: c.Firstname,
		Lastname:  c.Lastname,
		MaskedSSN: vm.MaskSSN(c.SocialSecurityNumber),
	}
}

// FromDomainCustomers converts domain customers to view models sorted by
// lastname, then firstname, using English collation.
func FromDomainCustomers(customers []customer.Customer) []vm.Customer {
	result := make([]vm.Customer, len(customers))
	for i, c := range customers {
		result[i] = FromDomainCustomer(c)
	}

	// A Collator keeps internal buffers, so each call gets its own.
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(result, func(i, j int) bool {
		if n := col.CompareString(result[i].Lastname, result[j].Lastname); n != 0 {
			return n < 0
		}
		if n := col.CompareString(result[i].Firstname, result[j].Firstname); n != 0 {
			return n < 0
		}
		return result[i].ID < result[j].ID
	})
	return result
}
