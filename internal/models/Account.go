package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a user-owned payment source. Amount is the remaining balance
// and must never go negative; debits happen inside the same transaction as
// the ticket mutation they pay for.
type Account struct {
	gorm.Model
	Name           string          `json:"name"`
	CardID         string          `json:"card_id"`
	CardHolderName string          `json:"card_holder_name"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);default:0"`

	UserID uint `json:"user_id" gorm:"index"`
}
