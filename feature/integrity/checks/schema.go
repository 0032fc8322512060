package checks

import (
	"fmt"

	"hardware-manager/core/database"
	"hardware-manager/core/session"

	"gorm.io/gorm"
)

// SchemaReport is the result of checking the session table.
type SchemaReport struct {
	Table          string   `json:"table"`
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSessionSchema verifies that the session table has every expected column.
func CheckSessionSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	table := session.Record{}.TableName()
	missing, err := database.MissingColumns(db, table, session.Columns)
	if err != nil {
		return nil, err
	}

	report := &SchemaReport{Table: table, MissingColumns: []string{}, Status: "ok"}
	if len(missing) > 0 {
		report.MissingColumns = missing
		report.Status = "error"
	}
	return report, nil
}
