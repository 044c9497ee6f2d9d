package ticketing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rail_booker/internal/models"
)

// BookRequest identifies the target of a booking or a price quote.
type BookRequest struct {
	ScheduleID   uint
	ContactID    uint
	CarriageID   uint
	OriStationID uint
	DstStationID uint
}

// ScheduleScope preloads a schedule's ordered stops and carriage
// allocations; every operation that inspects termini relies on it.
func ScheduleScope(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Stops", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }).
		Preload("Stops.Station").
		Preload("Carriages.Carriage")
}

func loadSchedule(db *gorm.DB, id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := ScheduleScope(db).First(&schedule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

func loadOwnedTicket(db *gorm.DB, userID, ticketID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := db.
		Preload("Schedule.Stops", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }).
		Where("id = ? AND user_id = ?", ticketID, userID).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func lockedOwnedAccount(tx *gorm.DB, userID, accountID uint) (*models.Account, error) {
	var account models.Account
	err := forUpdate(tx).Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Quote prices a booking without persisting anything. The validation
// mirrors Book exactly so a quote always matches the booked amount.
func Quote(db *gorm.DB, user *models.User, req BookRequest) (decimal.Decimal, error) {
	if err := checkContactOwned(db, user.ID, req.ContactID); err != nil {
		return decimal.Zero, err
	}
	schedule, err := loadSchedule(db, req.ScheduleID)
	if err != nil {
		return decimal.Zero, err
	}
	if !schedule.ServesSegment(req.OriStationID, req.DstStationID) {
		return decimal.Zero, ErrSegmentNotServed
	}
	alloc, err := lockedAllocation(db, req.ScheduleID, req.CarriageID)
	if err != nil {
		return decimal.Zero, err
	}
	return ScheduleFare(schedule, &alloc.Carriage), nil
}

func checkContactOwned(db *gorm.DB, userID, contactID uint) error {
	var contact models.Contact
	err := db.Where("id = ? AND user_id = ?", contactID, userID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContactNotFound
	}
	return err
}

// Book creates a ticket for the user. The capacity check and the insert
// run in one transaction with the allocation row locked, so concurrent
// bookings on the same (schedule, carriage) pair cannot oversell.
func Book(db *gorm.DB, user *models.User, req BookRequest) (*models.Ticket, error) {
	if err := checkContactOwned(db, user.ID, req.ContactID); err != nil {
		return nil, err
	}
	schedule, err := loadSchedule(db, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if !schedule.ServesSegment(req.OriStationID, req.DstStationID) {
		return nil, ErrSegmentNotServed
	}

	var ticket *models.Ticket
	err = db.Transaction(func(tx *gorm.DB) error {
		alloc, err := lockedAllocation(tx, req.ScheduleID, req.CarriageID)
		if err != nil {
			return err
		}
		occupied, err := occupiedSeats(tx, req.ScheduleID, req.CarriageID)
		if err != nil {
			return err
		}
		if occupied >= alloc.Num*alloc.Carriage.SeatNum {
			return ErrSeatFull
		}
		seatNo, err := nextFreeSeat(tx, req.ScheduleID, req.CarriageID)
		if err != nil {
			return err
		}

		scheduleID := schedule.ID
		ticket = &models.Ticket{
			Amount:       ScheduleFare(schedule, &alloc.Carriage),
			SeatNo:       seatNo,
			ScheduleID:   &scheduleID,
			CarriageID:   req.CarriageID,
			OriStationID: req.OriStationID,
			DstStationID: req.DstStationID,
			ContactID:    req.ContactID,
			UserID:       user.ID,
		}
		return tx.Create(ticket).Error
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Pay debits the account and marks the ticket paid as one atomic unit.
// The ticket row is locked before the account row (same order as Remove)
// and the paid flip is conditional on is_paid still being false, so two
// concurrent payments of one ticket cannot both debit.
func Pay(db *gorm.DB, user *models.User, ticketID, accountID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		ticket, err := loadOwnedTicket(forUpdate(tx), user.ID, ticketID)
		if err != nil {
			return err
		}
		account, err := lockedOwnedAccount(tx, user.ID, accountID)
		if err != nil {
			return err
		}

		now := time.Now()
		switch {
		case ticket.IsPaid:
			return ErrAlreadyPaid
		case ticket.IsScheduleModified:
			return ErrScheduleChanged
		case ticket.IsExpired(now):
			return ErrOrderExpired
		case ticket.Amount.GreaterThan(account.Amount):
			return ErrInsufficientBalance
		}

		res := tx.Model(&models.Ticket{}).
			Where("id = ? AND is_paid = ?", ticket.ID, false).
			Update("is_paid", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyPaid
		}

		account.Amount = account.Amount.Sub(ticket.Amount)
		return tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("amount", account.Amount).Error
	})
}

// Change rebooks the ticket onto an option-compatible schedule. The seat
// check at the new target and the ticket rewrite share one transaction.
// Amount becomes the fare delta and the payment state resets, so a change
// behaves like a fresh unpaid order for the difference.
func Change(db *gorm.DB, user *models.User, ticketID, newScheduleID, newCarriageID uint) (*models.Ticket, error) {
	newSchedule, err := loadSchedule(db, newScheduleID)
	if err != nil {
		return nil, err
	}

	ticket, err := loadOwnedTicket(db, user.ID, ticketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !ticket.IsChangeable(now) {
		return nil, ErrNotChangeable
	}

	if ticket.Schedule != nil {
		if !ticket.Schedule.OptionCompatibleWith(newSchedule) {
			return nil, ErrNotOptionCompatible
		}
		if newSchedule.DepartureTime.After(ticket.Schedule.DepartureTime.Add(models.ChangeDepartureSlack)) {
			return nil, ErrDepartureTooLate
		}
	} else {
		// Original schedule was deleted; the replacement must at least
		// serve the ticket's booked segment.
		if !newSchedule.ServesSegment(ticket.OriStationID, ticket.DstStationID) {
			return nil, ErrNotOptionCompatible
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		alloc, err := lockedAllocation(tx, newScheduleID, newCarriageID)
		if err != nil {
			return err
		}
		occupied, err := occupiedSeats(tx, newScheduleID, newCarriageID)
		if err != nil {
			return err
		}
		if occupied >= alloc.Num*alloc.Carriage.SeatNum {
			return ErrSeatFull
		}
		seatNo, err := nextFreeSeat(tx, newScheduleID, newCarriageID)
		if err != nil {
			return err
		}

		newFare := ScheduleFare(newSchedule, &alloc.Carriage)

		ticket.CreatedAt = now
		ticket.SeatNo = seatNo
		ticket.ScheduleID = &newSchedule.ID
		ticket.CarriageID = newCarriageID
		ticket.Amount = newFare.Sub(ticket.Amount)
		ticket.IsPaid = false
		ticket.IsScheduleModified = false
		ticket.Schedule = nil

		return tx.Omit(clause.Associations).Save(ticket).Error
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Remove hard-deletes a ticket. Deletable tickets (unpaid or expired) go
// without a refund; cancelable tickets require a refund account that is
// credited the full amount atomically with the delete. The whole decision
// runs in one transaction with the ticket row locked, and the credit only
// applies when the delete actually removed a row, so a concurrent cancel
// of the same ticket cannot refund twice. The returned flag reports
// whether a refund was issued.
func Remove(db *gorm.DB, user *models.User, ticketID uint, refundAccountID *uint) (bool, error) {
	refunded := false
	err := db.Transaction(func(tx *gorm.DB) error {
		ticket, err := loadOwnedTicket(forUpdate(tx), user.ID, ticketID)
		if err != nil {
			return err
		}

		now := time.Now()
		switch {
		case ticket.IsDeletable(now):
			return tx.Delete(&models.Ticket{}, ticket.ID).Error

		case ticket.IsCancelable(now):
			if refundAccountID == nil {
				return ErrRefundAccountRequired
			}
			account, err := lockedOwnedAccount(tx, user.ID, *refundAccountID)
			if err != nil {
				return err
			}
			res := tx.Delete(&models.Ticket{}, ticket.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrTicketNotFound
			}
			account.Amount = account.Amount.Add(ticket.Amount)
			if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
				Update("amount", account.Amount).Error; err != nil {
				return err
			}
			refunded = true
			return nil

		case ticket.IsPaid:
			return ErrNotCancelable

		default:
			return ErrNotDeletable
		}
	})
	return refunded, err
}
