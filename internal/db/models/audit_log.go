package models

import "time"

// Column limits of AuditLog, in characters.
const (
	AuditDetailMaxLen    = 2000
	AuditIPMaxLen        = 45
	AuditUserAgentMaxLen = 512
)

// AuditLog is an append-only record of a security relevant event.
// Rows are never updated or deleted by the application.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey" json:"id"`
	// UserID is nil for actor-less events like failed logins.
	UserID *uint64 `gorm:"index" json:"user_id"`
	// Username is a snapshot, it survives renames and deletion of the user.
	Username  string    `gorm:"size:100" json:"username"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	EntityID  *uint64   `gorm:"index" json:"entity_id"`
	Detail    string    `gorm:"size:2000" json:"detail"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the database table name for the AuditLog model.
func (AuditLog) TableName() string {
	return "audit_logs"
}
