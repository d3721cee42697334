// Package models contains database model definitions.
package models

// Setting represents a key/value setting stored in the database.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte `gorm:"type:blob"`
}

// All returns every model for auto migration, in dependency order.
func All() []any {
	return []any{
		&Permission{},
		&Role{},
		&User{},
		&AuditLog{},
		&Category{},
		&Brand{},
		&Product{},
		&Portfolio{},
		&Media{},
		&ContactMessage{},
		&Setting{},
	}
}
