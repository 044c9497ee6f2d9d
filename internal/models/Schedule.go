package models

import (
	"time"

	"gorm.io/gorm"
)

// Schedule represents a single train run: an ordered sequence of station
// stops plus a multiset of carriage allocations. The first stop is the
// origin terminus, the last stop the destination terminus.
type Schedule struct {
	gorm.Model
	ScheduleNo    string    `json:"schedule_no" gorm:"unique" binding:"required"`
	DepartureTime time.Time `json:"departure_time"`

	Stops      []ScheduleStation  `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE;" json:"stops,omitempty"`
	Carriages  []ScheduleCarriage `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE;" json:"carriages,omitempty"`
}

// ScheduleStation is one stop of a schedule. Seq defines the travel order.
type ScheduleStation struct {
	gorm.Model
	ScheduleID  uint      `json:"schedule_id" gorm:"index"`
	StationID   uint      `json:"station_id"`
	Station     Station   `gorm:"foreignKey:StationID" json:"station"`
	Seq         int       `json:"seq"`
	ArrivalTime time.Time `json:"arrival_time"`
}

// ScheduleCarriage allocates Num physical carriages of one type to a
// schedule. Seat capacity for the type is Num * Carriage.SeatNum.
type ScheduleCarriage struct {
	gorm.Model
	ScheduleID uint     `json:"schedule_id" gorm:"index"`
	CarriageID uint     `json:"carriage_id"`
	Carriage   Carriage `gorm:"foreignKey:CarriageID" json:"carriage"`
	Num        int      `json:"num"`
}

// FirstStop returns the origin terminus, nil when no stops are loaded.
// Callers must preload Stops ordered by seq.
func (s *Schedule) FirstStop() *ScheduleStation {
	if len(s.Stops) == 0 {
		return nil
	}
	return &s.Stops[0]
}

// LastStop returns the destination terminus, nil when no stops are loaded.
func (s *Schedule) LastStop() *ScheduleStation {
	if len(s.Stops) == 0 {
		return nil
	}
	return &s.Stops[len(s.Stops)-1]
}

// HasTermini reports whether the schedule starts at ori and ends at dst.
// A zero id matches any terminus.
func (s *Schedule) HasTermini(oriStationID, dstStationID uint) bool {
	first, last := s.FirstStop(), s.LastStop()
	if first == nil || last == nil {
		return false
	}
	if oriStationID != 0 && first.StationID != oriStationID {
		return false
	}
	if dstStationID != 0 && last.StationID != dstStationID {
		return false
	}
	return true
}

// OptionCompatibleWith reports whether other is interchangeable with s for
// a ticket change: same origin and destination terminus, different run.
func (s *Schedule) OptionCompatibleWith(other *Schedule) bool {
	if other == nil || s.ID == other.ID {
		return false
	}
	first, last := s.FirstStop(), s.LastStop()
	if first == nil || last == nil {
		return false
	}
	return other.HasTermini(first.StationID, last.StationID)
}

// StopIndex returns the position of stationID in the stop sequence,
// -1 when the schedule does not call there.
func (s *Schedule) StopIndex(stationID uint) int {
	for i := range s.Stops {
		if s.Stops[i].StationID == stationID {
			return i
		}
	}
	return -1
}

// ServesSegment reports whether the schedule calls at ori before dst.
func (s *Schedule) ServesSegment(oriStationID, dstStationID uint) bool {
	oi := s.StopIndex(oriStationID)
	di := s.StopIndex(dstStationID)
	return oi >= 0 && di >= 0 && oi < di
}
