package models

import "gorm.io/gorm"

// Roles attached to every authenticated principal.
const (
	RoleGuest   = "Guest"
	RoleManager = "Manager"
	RoleAdmin   = "Admin"
)

type User struct {
	gorm.Model

	FullName string `json:"fullName"`
	Email    string `gorm:"uniqueIndex;size:150" json:"email"`
	Password string `json:"-"`
	Role     string `gorm:"size:16;index" json:"role"`
}

// Principal is the authenticated identity attached to every call.
type Principal struct {
	UserID uint
	Role   string
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsManager() bool { return p.Role == RoleManager }
func (p Principal) IsGuest() bool   { return p.Role == RoleGuest }
