package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winsbygroup.com/custserver/internal/customer"
	"winsbygroup.com/custserver/internal/postgres"
)

// Runs only when POSTGRES_TEST_DSN points at a disposable database.
func TestPostgresCustomerStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := postgres.Open(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`TRUNCATE customer RESTART IDENTITY`)
		db.Close()
	})

	_, err = db.Exec(`TRUNCATE customer RESTART IDENTITY`)
	require.NoError(t, err)

	// migrations are idempotent
	require.NoError(t, postgres.RunMigrations(db.DB))

	store := customer.NewSQLStore(db, customer.Postgres)

	created, err := store.Save(ctx, &customer.Customer{Firstname: "John", Lastname: "Doe", SocialSecurityNumber: 12345})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	explicit, err := store.Save(ctx, &customer.Customer{ID: 10, Firstname: "Bill", Lastname: "Gates", SocialSecurityNumber: 123})
	require.NoError(t, err)
	assert.Equal(t, int64(10), explicit.ID)

	next, err := store.Save(ctx, &customer.Customer{Firstname: "Barak", Lastname: "Obama", SocialSecurityNumber: 12345})
	require.NoError(t, err)
	assert.Equal(t, int64(11), next.ID, "generated ids must skip past explicit ones")

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 10, 11}, []int64{all[0].ID, all[1].ID, all[2].ID})

	require.NoError(t, store.DeleteByID(ctx, 10))
	_, err = store.FindByID(ctx, 10)
	assert.ErrorIs(t, err, customer.ErrNotFound)
}
