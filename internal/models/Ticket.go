package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket lifecycle windows.
const (
	// PaymentWindow is how long an unpaid booking stays payable.
	PaymentWindow = 24 * time.Hour
	// DepartureCutoff is the minimum lead before departure for a paid
	// ticket to still be cancelable or changeable.
	DepartureCutoff = time.Hour
	// ChangeDepartureSlack caps how much later the replacement run may
	// depart relative to the original.
	ChangeDepartureSlack = 24 * time.Hour
)

// Ticket is a booking of one seat on a (schedule, carriage) pair between
// two stations of that schedule. Tickets are hard-deleted on cancel and
// delete, so every stored row counts against seat capacity.
//
// Amount is fixed at booking (and rebooking) time and never recomputed
// elsewhere; after a change it holds the fare delta.
type Ticket struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"create_time"`
	UpdatedAt time.Time `json:"-"`

	Amount             decimal.Decimal `json:"amount" gorm:"type:decimal(10,2)"`
	IsPaid             bool            `json:"is_paid"`
	IsScheduleModified bool            `json:"is_schedule_modified"`
	SeatNo             int             `json:"seat_no"`

	// ScheduleID is nullable: schedules can be deleted under live tickets.
	ScheduleID *uint     `json:"schedule_id" gorm:"index"`
	Schedule   *Schedule `gorm:"foreignKey:ScheduleID" json:"schedule,omitempty"`

	CarriageID uint     `json:"carriage_id" gorm:"index"`
	Carriage   Carriage `gorm:"foreignKey:CarriageID" json:"carriage"`

	OriStationID uint    `json:"ori_station_id"`
	OriStation   Station `gorm:"foreignKey:OriStationID" json:"ori_station"`
	DstStationID uint    `json:"dst_station_id"`
	DstStation   Station `gorm:"foreignKey:DstStationID" json:"dst_station"`

	ContactID uint    `json:"contact_id"`
	Contact   Contact `gorm:"foreignKey:ContactID" json:"contact"`

	UserID uint `json:"user_id" gorm:"index"`
}

// IsExpired reports whether an unpaid booking has outlived its payment
// window. A paid ticket never expires.
func (t *Ticket) IsExpired(now time.Time) bool {
	return !t.IsPaid && now.After(t.CreatedAt.Add(PaymentWindow))
}

// IsDeletable reports whether the ticket may be hard-deleted without a
// refund: any unpaid ticket, or an expired one. A paid, unexpired ticket
// is not deletable; it must go through cancellation.
func (t *Ticket) IsDeletable(now time.Time) bool {
	return !t.IsPaid || t.IsExpired(now)
}

// IsCancelable reports whether a paid ticket may still be refunded and
// removed: departure must be more than DepartureCutoff away. A ticket
// whose schedule has been deleted has no departure to cut off against.
func (t *Ticket) IsCancelable(now time.Time) bool {
	if !t.IsPaid || t.Schedule == nil {
		return false
	}
	return now.Add(DepartureCutoff).Before(t.Schedule.DepartureTime)
}

// IsChangeable reports whether the ticket may be rebooked onto another
// run. A schedule-modified ticket is always changeable; otherwise the
// original departure must be more than DepartureCutoff away.
func (t *Ticket) IsChangeable(now time.Time) bool {
	if t.IsScheduleModified {
		return true
	}
	if t.Schedule == nil {
		return false
	}
	return now.Add(DepartureCutoff).Before(t.Schedule.DepartureTime)
}
