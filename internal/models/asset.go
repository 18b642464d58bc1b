package models

import (
	"time"

	"gorm.io/gorm"
)

// AssetStatus defines the lifecycle status of a piece of equipment
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"   // In stock, ready to install
	AssetStatusInUse       AssetStatus = "in_use"      // Installed at a client site
	AssetStatusMaintenance AssetStatus = "maintenance" // Pulled for repair
	AssetStatusRetired     AssetStatus = "retired"     // End of life
)

// Asset represents a piece of equipment (router, antenna, SIM) tracked by serial
type Asset struct {
	ID           string      `gorm:"primaryKey;type:uuid" json:"id"`
	SerialNumber string      `gorm:"uniqueIndex;not null" json:"serial_number"`
	Model        string      `gorm:"index" json:"model"`
	Status       AssetStatus `gorm:"default:available;index" json:"status"`
	QRCode       *string     `gorm:"uniqueIndex" json:"qr_code,omitempty"`

	// Current association (set by provisioning, read by the setup workflow)
	OrderID *string `gorm:"type:uuid;index" json:"order_id,omitempty"`

	// Rental accounting. RentedDays is derived and recomputed by the
	// background rental worker, never written by request handlers.
	RentedSince *time.Time `json:"rented_since,omitempty"`
	RentedDays  int        `gorm:"default:0" json:"rented_days"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Asset model
func (Asset) TableName() string {
	return "assets"
}

// BeforeCreate assigns a uuid primary key
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}
