package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a customer that orders are fulfilled for
type Client struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Name     string `gorm:"not null;index" json:"name"`
	Document string `gorm:"index" json:"document"` // CNPJ/CPF or equivalent tax id
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns a uuid primary key
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}
