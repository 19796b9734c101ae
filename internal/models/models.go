package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// ContactSubmission is a contact/lead form submission captured by the
// marketing pages and processed asynchronously
type ContactSubmission struct {
	BaseModel
	Name     string `json:"name" gorm:"not null"`
	Email    string `json:"email" gorm:"not null;index"`
	Phone    string `json:"phone"`
	Category string `json:"category"` // Catalog category slug the lead asked about
	Message  string `json:"message" gorm:"type:text;not null"`

	// Processing state
	NotifiedAt *time.Time `json:"notified_at"`
}

// AuthSession is a session record kept by the development access-management
// stub so logout revocation survives restarts
type AuthSession struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"not null;index"`
	RevokedAt *time.Time `json:"revoked_at"`
}

// Revoked reports whether the session has been logged out
func (s *AuthSession) Revoked() bool {
	return s.RevokedAt != nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ContactSubmission{},
		&AuthSession{},
	)
}
