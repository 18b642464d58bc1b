package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderType defines the type of order
type OrderType string

const (
	OrderTypeInstall   OrderType = "install"   // Field installation
	OrderTypeUninstall OrderType = "uninstall" // Equipment removal
)

// OrderStatus defines possible order statuses
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"     // Awaiting scheduling
	OrderStatusScheduled  OrderStatus = "scheduled"   // Technician visit booked
	OrderStatusInProgress OrderStatus = "in_progress" // Setup started on site
	OrderStatusCompleted  OrderStatus = "completed"   // Setup finished
	OrderStatusCancelled  OrderStatus = "cancelled"   // Cancelled
)

// Order represents the commercial unit a field setup fulfills
type Order struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	OrderNumber string    `gorm:"uniqueIndex;not null" json:"order_number"`
	ClientID    string    `gorm:"type:uuid;not null;index" json:"client_id"`
	OrderType   OrderType `gorm:"not null;index" json:"order_type"` // install | uninstall

	// Visit address
	Street     string `gorm:"not null" json:"street"`
	Number     string `json:"number"`
	City       string `gorm:"not null;index" json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`

	Status      OrderStatus    `gorm:"default:pending;index" json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	QRCode      *string        `gorm:"uniqueIndex" json:"qr_code,omitempty"`
	Metadata    datatypes.JSON `json:"metadata"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Assets []Asset `gorm:"foreignKey:OrderID" json:"assets,omitempty"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns the primary key and order number before creating
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = newID()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = "ORD" + time.Now().Format("20060102") + "-" + randomString(4)
	}
	return nil
}

// Address returns the visit address as a single display string
func (o *Order) Address() string {
	addr := o.Street
	if o.Number != "" {
		addr += ", " + o.Number
	}
	if o.City != "" {
		addr += " - " + o.City
	}
	return addr
}

// randomString generates a random string of given length
func randomString(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	now := time.Now().UnixNano()
	for i := 0; i < length; i++ {
		result[i] = charset[(now+int64(i))%int64(len(charset))]
	}
	return string(result)
}
