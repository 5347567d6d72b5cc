// Package database provides SQLite connectivity for PrintHive.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Additive schema migrations from an embedded filesystem
//   - Connection lifecycle and health checks
//
// The database holds PrintHive's durable state: user accounts, issued
// API tokens, and the printer settings table. All runtime printer state
// (connection status, job progress) lives in memory and is never
// persisted here.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive-only to support safe rollbacks:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns
//   - Each migration file has both .up.sql and .down.sql
package database
