package customer

const findAllCustomersSQL = `
SELECT customer_id, firstname, lastname, socialsecuritynumber
FROM customer
ORDER BY customer_id
`

const findCustomerSQL = `
SELECT customer_id, firstname, lastname, socialsecuritynumber
FROM customer
WHERE customer_id = ?
`

const insertCustomerSQL = `
INSERT INTO customer (
    firstname, lastname, socialsecuritynumber
) VALUES (?, ?, ?)
RETURNING customer_id
`

const upsertCustomerSQL = `
INSERT INTO customer (
    customer_id, firstname, lastname, socialsecuritynumber
) VALUES (?, ?, ?, ?)
ON CONFLICT (customer_id) DO UPDATE
SET firstname = excluded.firstname,
    lastname = excluded.lastname,
    socialsecuritynumber = excluded.socialsecuritynumber
`

const deleteCustomerSQL = `
DELETE FROM customer
WHERE customer_id = ?
`

// Postgres identity columns do not advance when a row is inserted with an
// explicit id.
const resyncPostgresSequenceSQL = `
SELECT setval(
    pg_get_serial_sequence('customer', 'customer_id'),
    (SELECT MAX(customer_id) FROM customer)
)
`
