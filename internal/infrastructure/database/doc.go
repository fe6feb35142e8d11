// Package database provides SQLite connectivity for homesim.
//
// It opens the database file in WAL mode with a busy timeout and applies
// schema migrations embedded by the migrations package. The only table the
// simulator writes is tick_history, an append-only audit of completed ticks;
// device state itself is never persisted.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql.
package database
