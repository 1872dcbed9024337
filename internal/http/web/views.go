package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	vm "winsbygroup.com/custserver/internal/viewmodels"
)

// CustomersTable renders the customer table body. Served alone to htmx
// requests and embedded in CustomersPage otherwise.
func CustomersTable(customers []vm.Customer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table id="customers"><thead><tr><th>ID</th><th>Name</th><th>SSN</th></tr></thead><tbody>`); err != nil {
			return err
		}
		if len(customers) == 0 {
			if _, err := io.WriteString(w, `<tr><td colspan="3">No customers</td></tr>`); err != nil {
				return err
			}
		}
		for _, c := range customers {
			_, err := fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`,
				c.ID, templ.EscapeString(c.FullName()), templ.EscapeString(c.MaskedSSN))
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

// CustomersPage renders a complete HTML document around CustomersTable.
func CustomersPage(customers []vm.Customer, version string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Customers</title></head><body><h1>Customers</h1>`); err != nil {
			return err
		}
		if err := CustomersTable(customers).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<footer>Custserver v%s</footer></body></html>`, templ.EscapeString(version))
		return err
	})
}
