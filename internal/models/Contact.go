package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GenderMale    = "M"
	GenderFemale  = "F"
	GenderUnknown = "U"
)

// Contact is a traveler identity owned by a user; the person a ticket is
// issued for, distinct from the account holder who pays.
type Contact struct {
	gorm.Model
	Name      string    `json:"name" binding:"required"`
	Gender    string    `json:"gender" gorm:"type:varchar(1);default:'U'"`
	Birthdate time.Time `json:"birthdate"`
	IDCard    string    `json:"id_card"`

	UserID uint `json:"user_id" gorm:"index"`
}
