package domain

import "time"

// RoleAdmin marks users allowed on the admin routes
const RoleAdmin = "admin"

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                       // Primary key
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"` // Unique login email
	Password  string    `gorm:"not null" json:"-"`                          // Hashed password
	FirstName string    `gorm:"size:100" json:"first_name"`                 // First name
	LastName  string    `gorm:"size:100" json:"last_name"`                  // Last name
	Role      string    `gorm:"default:user" json:"role"`                   // Role: user or admin
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`    // Set once the email is confirmed
	Wallet    *Wallet   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"wallet,omitempty"`
	CreatedAt time.Time `json:"created_at"` // Registration time
}
