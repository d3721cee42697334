package models

import "time"

// Permission is one entry of the fixed permission set, seeded at startup.
type Permission struct {
	ID uint `gorm:"primaryKey"`
	// Name is the permission constant, e.g. "manage_products".
	Name        string `gorm:"unique;size:100;not null"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
