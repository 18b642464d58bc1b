package models

import (
	"time"

	"gorm.io/gorm"
)

// Setup represents one field job (installation or removal) tracked
// through the supervision state machine. Status, CompletedAt, ApprovedAt
// and RejectedReason are written exclusively by the setup service.
type Setup struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID        string  `gorm:"type:uuid;not null;index" json:"order_id"`
	TechnicianID   string  `gorm:"type:uuid;index" json:"technician_id"`
	Status         string  `gorm:"default:in_progress;index" json:"status"`
	Region         string  `gorm:"index" json:"region"`
	RejectedReason *string `json:"rejected_reason,omitempty"`

	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Order      *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Technician *UserAuth `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
}

// TableName specifies the table name for Setup model
func (Setup) TableName() string {
	return "setups"
}

// BeforeCreate assigns a uuid primary key
func (s *Setup) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

// SetupDetailedView is the read model exposed to consumers: a setup
// joined with its order and evidence counts. Assembled by the setup
// service, never persisted.
type SetupDetailedView struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	OrderNumber    string     `json:"order_number"`
	TechnicianID   string     `json:"technician_id"`
	TechnicianName string     `json:"technician_name,omitempty"`
	Status         string     `json:"status"`
	Region         string     `json:"region"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedReason *string    `json:"rejected_reason,omitempty"`

	ClientID         string     `json:"client_id"`
	ClientName       string     `json:"client_name,omitempty"`
	Address          string     `json:"address"`
	OrderType        OrderType  `json:"order_type"`
	OrderScheduledAt *time.Time `json:"order_scheduled_at,omitempty"`

	PhotosCount     int64    `json:"photos_count"`
	SpeedTestsCount int64    `json:"speed_tests_count"`
	SignaturesCount int64    `json:"signatures_count"`
	AssetSerials    []string `json:"asset_serials"`
}
