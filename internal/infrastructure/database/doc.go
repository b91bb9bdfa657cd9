// Package database provides SQLite storage for the connector's session
// journal.
//
// This package manages:
//   - Opening the SQLite database with WAL mode and busy timeout pragmas
//   - Schema migrations embedded into the binary
//   - Connection health checks
//
// # Why SQLite
//
// The journal is an append-mostly local event log written by a single
// process. SQLite with WAL mode handles this with zero operational
// overhead: no server, a single file, owner-only permissions.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "./data/journal.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
