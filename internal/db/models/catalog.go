package models

import "time"

// Category groups products. Categories form a tree through ParentID.
type Category struct {
	ID        uint64  `gorm:"primaryKey"`
	Name      string  `gorm:"size:200;not null"`
	Slug      string  `gorm:"unique;size:200;not null"`
	ParentID  *uint64 `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Category model.
func (Category) TableName() string {
	return "categories"
}

// Brand of a product.
type Brand struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	Slug      string `gorm:"unique;size:200;not null"`
	Website   string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Brand model.
func (Brand) TableName() string {
	return "brands"
}

// Product is a catalog entry shown on the storefront.
type Product struct {
	ID          uint64  `gorm:"primaryKey"`
	Name        string  `gorm:"size:200;not null"`
	Slug        string  `gorm:"unique;size:200;not null"`
	Description string  `gorm:"type:text"`
	CategoryID  *uint64 `gorm:"index"`
	BrandID     *uint64 `gorm:"index"`
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the database table name for the Product model.
func (Product) TableName() string {
	return "products"
}

// Portfolio is a showcase entry of the web property.
type Portfolio struct {
	ID        uint64 `gorm:"primaryKey"`
	Title     string `gorm:"size:200;not null"`
	Slug      string `gorm:"unique;size:200;not null"`
	Summary   string `gorm:"type:text"`
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Portfolio model.
func (Portfolio) TableName() string {
	return "portfolios"
}

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	Email     string `gorm:"size:255;not null"`
	Message   string `gorm:"type:text;not null"`
	IPAddress string `gorm:"size:45"`
	CreatedAt time.Time
}

// TableName specifies the database table name for the ContactMessage model.
func (ContactMessage) TableName() string {
	return "contact_messages"
}
