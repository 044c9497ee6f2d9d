package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Carriage is a class of railcar: fixed seat count per physical carriage
// and a price multiplier applied to the base fare.
type Carriage struct {
	gorm.Model
	Name         string          `json:"name" gorm:"unique" binding:"required"`
	SeatNum      int             `json:"seat_num"`
	IncreaseRate decimal.Decimal `json:"increase_rate" gorm:"type:decimal(10,2);default:1"`
}
