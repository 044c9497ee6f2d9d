package models

import (
	"gorm.io/gorm"
)

// Message is a system notification fanned out to one or more users, e.g.
// when a schedule with sold tickets is modified or canceled. CreatedAt is
// the send time.
type Message struct {
	gorm.Model
	Message string `json:"message" gorm:"type:text"`

	FromUserID *uint `json:"from_user_id"`
	FromUser   *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`

	ToUsers []User `gorm:"many2many:message_recipients;" json:"to_users,omitempty"`
}
