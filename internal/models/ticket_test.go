package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rail_booker/internal/models"
)

func scheduleWithStops(id uint, stationIDs ...uint) *models.Schedule {
	s := &models.Schedule{}
	s.ID = id
	for i, stationID := range stationIDs {
		s.Stops = append(s.Stops, models.ScheduleStation{ScheduleID: id, StationID: stationID, Seq: i})
	}
	return s
}

func TestTicketExpiry(t *testing.T) {
	now := time.Now()

	t.Run("fresh unpaid ticket is not expired", func(t *testing.T) {
		ticket := &models.Ticket{CreatedAt: now.Add(-time.Hour)}
		assert.False(t, ticket.IsExpired(now))
	})

	t.Run("unpaid ticket past the payment window is expired", func(t *testing.T) {
		ticket := &models.Ticket{CreatedAt: now.Add(-25 * time.Hour)}
		assert.True(t, ticket.IsExpired(now))
	})

	t.Run("paid ticket never expires", func(t *testing.T) {
		ticket := &models.Ticket{CreatedAt: now.Add(-48 * time.Hour), IsPaid: true}
		assert.False(t, ticket.IsExpired(now))
	})
}

func TestTicketDeletable(t *testing.T) {
	now := time.Now()
	departure := now.Add(10 * time.Hour)
	schedule := &models.Schedule{DepartureTime: departure}

	t.Run("unpaid ticket is deletable", func(t *testing.T) {
		ticket := &models.Ticket{CreatedAt: now, Schedule: schedule}
		assert.True(t, ticket.IsDeletable(now))
	})

	t.Run("paid unexpired ticket is not deletable but cancelable", func(t *testing.T) {
		ticket := &models.Ticket{CreatedAt: now, IsPaid: true, Schedule: schedule}
		assert.False(t, ticket.IsDeletable(now))
		assert.True(t, ticket.IsCancelable(now))
	})

	t.Run("paid ticket stays non-deletable even long after booking", func(t *testing.T) {
		// IsExpired only covers unpaid tickets, so a paid ticket never
		// becomes deletable through age.
		ticket := &models.Ticket{CreatedAt: now.Add(-72 * time.Hour), IsPaid: true, Schedule: schedule}
		assert.False(t, ticket.IsDeletable(now))
	})
}

func TestTicketCancelable(t *testing.T) {
	now := time.Now()

	t.Run("paid ticket close to departure is not cancelable", func(t *testing.T) {
		schedule := &models.Schedule{DepartureTime: now.Add(30 * time.Minute)}
		ticket := &models.Ticket{IsPaid: true, Schedule: schedule}
		assert.False(t, ticket.IsCancelable(now))
	})

	t.Run("unpaid ticket is never cancelable", func(t *testing.T) {
		schedule := &models.Schedule{DepartureTime: now.Add(10 * time.Hour)}
		ticket := &models.Ticket{Schedule: schedule}
		assert.False(t, ticket.IsCancelable(now))
	})

	t.Run("deleted schedule means not cancelable", func(t *testing.T) {
		ticket := &models.Ticket{IsPaid: true}
		assert.False(t, ticket.IsCancelable(now))
	})
}

func TestTicketChangeable(t *testing.T) {
	now := time.Now()

	t.Run("within window", func(t *testing.T) {
		schedule := &models.Schedule{DepartureTime: now.Add(2 * time.Hour)}
		ticket := &models.Ticket{Schedule: schedule}
		assert.True(t, ticket.IsChangeable(now))
	})

	t.Run("too close to departure", func(t *testing.T) {
		schedule := &models.Schedule{DepartureTime: now.Add(30 * time.Minute)}
		ticket := &models.Ticket{Schedule: schedule}
		assert.False(t, ticket.IsChangeable(now))
	})

	t.Run("schedule-modified overrides the window", func(t *testing.T) {
		schedule := &models.Schedule{DepartureTime: now.Add(30 * time.Minute)}
		ticket := &models.Ticket{Schedule: schedule, IsScheduleModified: true}
		assert.True(t, ticket.IsChangeable(now))
	})
}

func TestScheduleOptionCompatibility(t *testing.T) {
	s1 := scheduleWithStops(1, 10, 11, 12)
	s2 := scheduleWithStops(2, 10, 13, 12) // same termini, different middle
	s3 := scheduleWithStops(3, 10, 11)     // different destination terminus
	s4 := scheduleWithStops(4, 11, 12)     // different origin terminus

	assert.True(t, s1.OptionCompatibleWith(s2))
	assert.True(t, s2.OptionCompatibleWith(s1))
	assert.False(t, s1.OptionCompatibleWith(s3))
	assert.False(t, s1.OptionCompatibleWith(s4))
	assert.False(t, s1.OptionCompatibleWith(s1), "a schedule is not an option for itself")
	assert.False(t, s1.OptionCompatibleWith(nil))
}

func TestScheduleServesSegment(t *testing.T) {
	s := scheduleWithStops(1, 10, 11, 12)

	assert.True(t, s.ServesSegment(10, 12))
	assert.True(t, s.ServesSegment(10, 11))
	assert.True(t, s.ServesSegment(11, 12))
	assert.False(t, s.ServesSegment(12, 10), "wrong direction")
	assert.False(t, s.ServesSegment(10, 99), "station not on the run")
	assert.False(t, s.ServesSegment(11, 11), "same stop twice")
}

func TestScheduleTermini(t *testing.T) {
	s := scheduleWithStops(1, 10, 11, 12)

	assert.True(t, s.HasTermini(10, 12))
	assert.True(t, s.HasTermini(0, 12), "zero origin matches any")
	assert.True(t, s.HasTermini(10, 0), "zero destination matches any")
	assert.False(t, s.HasTermini(11, 12), "intermediate stop is not a terminus")

	empty := &models.Schedule{}
	assert.False(t, empty.HasTermini(0, 0))
}
