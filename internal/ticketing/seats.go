package ticketing

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rail_booker/internal/models"
)

// forUpdate takes FOR UPDATE row locks inside a transaction on postgres.
// The sqlite driver used in tests has no row locks and serializes writes
// itself.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockedAllocation loads the allocation row for a (schedule, carriage)
// pair, locked so concurrent capacity checks on the same pair serialize.
func lockedAllocation(tx *gorm.DB, scheduleID, carriageID uint) (*models.ScheduleCarriage, error) {
	var alloc models.ScheduleCarriage
	err := forUpdate(tx).Where("schedule_id = ? AND carriage_id = ?", scheduleID, carriageID).First(&alloc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarriageNotFound
		}
		return nil, err
	}
	if err := tx.First(&alloc.Carriage, alloc.CarriageID).Error; err != nil {
		return nil, err
	}
	return &alloc, nil
}

func occupiedSeats(tx *gorm.DB, scheduleID, carriageID uint) (int, error) {
	var count int64
	err := tx.Model(&models.Ticket{}).
		Where("schedule_id = ? AND carriage_id = ?", scheduleID, carriageID).
		Count(&count).Error
	return int(count), err
}

// nextFreeSeat returns the lowest seat number not held by a live ticket on
// the pair. With no cancellations this equals the occupied count; after a
// cancellation the freed seat is reused first, keeping seat numbers unique
// and below capacity.
func nextFreeSeat(tx *gorm.DB, scheduleID, carriageID uint) (int, error) {
	var taken []int
	err := tx.Model(&models.Ticket{}).
		Where("schedule_id = ? AND carriage_id = ?", scheduleID, carriageID).
		Pluck("seat_no", &taken).Error
	if err != nil {
		return 0, err
	}

	used := make(map[int]bool, len(taken))
	for _, seat := range taken {
		used[seat] = true
	}
	seat := 0
	for used[seat] {
		seat++
	}
	return seat, nil
}

// SeatInfo reports capacity and occupancy for a (schedule, carriage) pair.
// Occupancy counts every live ticket on the pair regardless of the segment
// traveled; a short-hop ticket holds its seat for the whole run.
func SeatInfo(db *gorm.DB, scheduleID, carriageID uint) (maxSeat, nowSeat int, err error) {
	alloc, err := lockedAllocation(db, scheduleID, carriageID)
	if err != nil {
		return 0, 0, err
	}
	nowSeat, err = occupiedSeats(db, scheduleID, carriageID)
	if err != nil {
		return 0, 0, err
	}
	return alloc.Num * alloc.Carriage.SeatNum, nowSeat, nil
}
