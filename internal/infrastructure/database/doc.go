// Package database opens the actioncore SQLite file and applies schema
// migrations.
//
// The file is opened through github.com/mattn/go-sqlite3 with an optional
// WAL journal, a busy timeout and a single pooled connection. Migrations are
// read from any fs.FS (normally the embedded migrations package) and each
// one is applied in its own transaction and recorded in schema_migrations.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or carry defaults, and
// every .up.sql ships with a .down.sql.
package database
