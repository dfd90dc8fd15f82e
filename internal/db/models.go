package db

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a recurring-billing customer in the database
type Client struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Whatsapp        string     `json:"whatsapp"`
	Address         string     `json:"address"`
	AppName         string     `json:"app_name"`
	MonthlyValue    float64    `json:"monthly_value"`
	PaymentLink     string     `json:"payment_link"`
	DueDay          int        `json:"due_day"`
	Status          string     `json:"status"`
	SaleDate        *time.Time `json:"sale_date,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Client status constants
const (
	StatusActive  = "ACTIVE"
	StatusLate    = "LATE"
	StatusPaused  = "PAUSED"
	StatusTesting = "TESTING"
)

// ValidStatus reports whether s is one of the known client statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusLate, StatusPaused, StatusTesting:
		return true
	}
	return false
}

// Message is an admin-authored message to sellers.
// ReceiverEmail nil means broadcast to everyone.
// Messages are immutable once created; the only mutation is delete.
type Message struct {
	ID            uuid.UUID `json:"id"`
	Content       string    `json:"content"`
	SenderName    string    `json:"sender_name"`
	ReceiverEmail *string   `json:"receiver_email,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Seller is a field-seller account. Credentials are checked as plain
// text on login and IsAdmin is the only role flag.
type Seller struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone"`
	PhotoURL  string    `json:"photo_url"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog/showcase entry.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	DemoLink    string    `json:"demo_link"`
	CreatedAt   time.Time `json:"created_at"`
}
