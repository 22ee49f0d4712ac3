package models

import (
	"time"
)

// Role distinguishes the two account kinds the marketplace knows about.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLandlord Role = "landlord"
)

// User represents an account in the system. Accounts are demo-grade:
// they exist so listings, chats and deals have actors attached, not to
// provide real authentication guarantees.
type User struct {
	Base         `bson:",inline"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"` // Store hash, not plaintext
	Role         Role      `bson:"role" json:"role"`
	IsAdmin      bool      `bson:"is_admin" json:"is_admin"`
	// Handle is the stable chat identity ("landlord-1", "student-josue").
	// Seeded accounts carry the handles the demo data references.
	Handle    string    `bson:"handle" json:"handle"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Deleted   bool      `bson:"deleted" json:"-"` // Soft delete flag
}
