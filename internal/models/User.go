package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Role names checked by the permission middleware.
const (
	RoleCommon      = "Common User"
	RoleTrainAdmin  = "Train Admin"
	RoleSystemAdmin = "System Admin"
)

type User struct {
	gorm.Model
	Name     string         `json:"name" gorm:"unique"`
	Email    string         `json:"email" gorm:"unique"`
	Password string         `json:"-"`
	Roles    pq.StringArray `json:"roles" gorm:"type:text[]"`

	Accounts []Account `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
	Contacts []Contact `gorm:"foreignKey:UserID" json:"contacts,omitempty"`
	Tickets  []Ticket  `gorm:"foreignKey:UserID" json:"tickets,omitempty"`
}

// HasAnyRole reports whether the user holds at least one of the given roles.
// Permissions are a flat capability set, there is no role inheritance.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range u.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
