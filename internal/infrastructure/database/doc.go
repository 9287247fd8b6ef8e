// Package database provides SQLite connectivity for the Gatelink staging
// database.
//
// This package manages:
//   - Database connection with WAL mode and busy-timeout pragmas
//   - Embedded schema migrations (registered by the migrations package)
//   - Connection lifecycle and health checks
//
// The staging database holds a single-slot relay buffer (see the staging
// package); the schema is deliberately tiny. File permissions are set to
// 0600 and all queries use parameterised statements.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Staging.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
