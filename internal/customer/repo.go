package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name      string
	bindType  int
	resyncSQL string
}

var (
	SQLite   = Dialect{Name: "sqlite", bindType: sqlx.QUESTION}
	Postgres = Dialect{Name: "postgres", bindType: sqlx.DOLLAR, resyncSQL: resyncPostgresSequenceSQL}
)

// SQLStore is a Store backed by a SQL database.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
}

func NewSQLStore(db *sqlx.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// The driver name may be an instrumented wrapper that sqlx cannot map to a
// bind type, so queries are rebound from the dialect instead of db.Rebind.
func (s *SQLStore) q(query string) string {
	return sqlx.Rebind(s.dialect.bindType, query)
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) FindAll(ctx context.Context) ([]Customer, error) {
	out := []Customer{}
	err := s.db.SelectContext(ctx, &out, s.q(findAllCustomersSQL))
	if err != nil {
		return nil, fmt.Errorf("find all customers: %w", err)
	}
	return out, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := s.db.GetContext(ctx, &c, s.q(findCustomerSQL), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w (%d)", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

func (s *SQLStore) Save(ctx context.Context, c *Customer) (*Customer, error) {
	if c == nil {
		return nil, errors.New("save customer: nil customer")
	}

	var saved Customer
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		id := c.ID
		if id == 0 {
			err := tx.GetContext(ctx, &id, s.q(insertCustomerSQL),
				c.Firstname,
				c.Lastname,
				c.SocialSecurityNumber,
			)
			if err != nil {
				return fmt.Errorf("insert customer: %w", err)
			}
		} else {
			_, err := tx.ExecContext(ctx, s.q(upsertCustomerSQL),
				c.ID,
				c.Firstname,
				c.Lastname,
				c.SocialSecurityNumber,
			)
			if err != nil {
				return fmt.Errorf("upsert customer: %w", err)
			}
			if s.dialect.resyncSQL != "" {
				if _, err := tx.ExecContext(ctx, s.dialect.resyncSQL); err != nil {
					return fmt.Errorf("resync customer ids: %w", err)
				}
			}
		}

		if err := tx.GetContext(ctx, &saved, s.q(findCustomerSQL), id); err != nil {
			return fmt.Errorf("reload customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *SQLStore) DeleteByID(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(deleteCustomerSQL), id); err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return nil
	})
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ Store = (*SQLStore)(nil)
