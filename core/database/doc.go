// Package database handles the local session database connection and schema inspection.
//
// It wraps GORM to open either a sqlite file (the default, a single-user workstation
// store) or a MySQL database (shared operator hosts), selected by Config.Driver.
//
// # Connect
//
// Connect opens the database and verifies it with a ping bounded by the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definition (PRAGMA table_info on
// sqlite, SHOW COLUMNS on MySQL). The integrity checks use them to verify the session table.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "sessions", []string{"slot", "token"})
package database
