package customer

import "context"

// Store holds the authoritative customer records.
type Store interface {
	// FindAll returns every customer ordered by id.
	FindAll(ctx context.Context) ([]Customer, error)
	// FindByID returns the customer or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*Customer, error)
	// Save inserts c when c.ID is zero (assigning a fresh id), overwrites the
	// record with c.ID when it exists, and otherwise inserts c with its id.
	Save(ctx context.Context, c *Customer) (*Customer, error)
	// DeleteByID removes the customer. Deleting an unknown id is a no-op.
	DeleteByID(ctx context.Context, id int64) error
}
