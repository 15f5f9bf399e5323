// Package database provides SQLite connectivity for the sqlite storage
// backend.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Versioned schema migrations read from an fs.FS
//   - Constraint error classification for repositories
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql, each with
// an optional .down.sql counterpart.
package database
