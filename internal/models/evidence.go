package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evidence rows are write-once: captured during a setup, inserted in the
// completion transaction and never updated afterwards. Photo and signature
// blobs are encrypted at rest; the per-item key and IV live next to the
// storage path (hex encoded).

// SetupPhoto is one photo captured as installation evidence
type SetupPhoto struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	SetupID     string    `gorm:"type:uuid;not null;index" json:"setup_id"`
	StoragePath string    `gorm:"not null" json:"storage_path"`
	EncKey      string    `gorm:"not null" json:"-"`
	EncIV       string    `gorm:"not null" json:"-"`
	CapturedAt  time.Time `json:"captured_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for SetupPhoto model
func (SetupPhoto) TableName() string {
	return "setup_photos"
}

// BeforeCreate assigns a uuid primary key
func (p *SetupPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

// SpeedTest is one connectivity measurement taken during a setup.
// All three measurements are required and non-negative.
type SpeedTest struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	SetupID      string         `gorm:"type:uuid;not null;index" json:"setup_id"`
	DownloadMbps float64        `gorm:"not null" json:"download_mbps"`
	UploadMbps   float64        `gorm:"not null" json:"upload_mbps"`
	PingMs       float64        `gorm:"not null" json:"ping_ms"`
	Raw          datatypes.JSON `json:"raw,omitempty"` // raw probe output, if any
	MeasuredAt   time.Time      `json:"measured_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName specifies the table name for SpeedTest model
func (SpeedTest) TableName() string {
	return "speed_tests"
}

// BeforeCreate assigns a uuid primary key
func (s *SpeedTest) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

// SetupSignature is the customer sign-off captured at the end of a setup
type SetupSignature struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	SetupID     string    `gorm:"type:uuid;not null;index" json:"setup_id"`
	SignerName  string    `gorm:"not null" json:"signer_name"`
	StoragePath string    `gorm:"not null" json:"storage_path"`
	EncKey      string    `gorm:"not null" json:"-"`
	EncIV       string    `gorm:"not null" json:"-"`
	CapturedAt  time.Time `json:"captured_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for SetupSignature model
func (SetupSignature) TableName() string {
	return "setup_signatures"
}

// BeforeCreate assigns a uuid primary key
func (s *SetupSignature) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
