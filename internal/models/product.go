package models

import "time"

// Product represents a catalog item owned by the user who created it.
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Description   string    `json:"description" gorm:"type:text"`
	Price         float64   `json:"price" gorm:"not null" validate:"gte=0"`
	StockQuantity int       `json:"stock_quantity" gorm:"not null;default:0" validate:"gte=0"`
	ImageURL      string    `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	OwnerID       string    `json:"owner_id" gorm:"index;type:varchar(36);not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
