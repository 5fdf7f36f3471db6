// Package testdb gives integration tests a migrated PostgreSQL database and
// transaction isolation.
//
// Each test runs inside a transaction that is rolled back when it returns,
// so tests can share one database and still run in parallel:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.Open(t) // skips when DATABASE_URL is unset
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresTaskStore(tx, nil)
//	        ...
//	    })
//	}
package testdb
