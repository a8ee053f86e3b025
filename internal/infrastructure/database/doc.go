// Package database opens and migrates the bridge's SQLite store.
//
// The store holds the controller's config record and the control-audit
// trail. WAL mode keeps reads from blocking behind the single writer,
// and the busy timeout absorbs short lock contention. Tables use
// STRICT mode.
//
// Migrations are embedded SQL file pairs registered through
// MigrationsFS by the migrations package:
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Each migration runs in its own transaction, and applied versions are
// tracked in schema_migrations, so re-running Migrate is cheap and
// idempotent.
package database
