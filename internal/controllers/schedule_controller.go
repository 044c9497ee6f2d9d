package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rail_booker/internal/config"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
	"rail_booker/internal/ticketing"
)

func toScheduleResponse(schedule *models.Schedule) gin.H {
	stops := make([]gin.H, 0, len(schedule.Stops))
	for _, stop := range schedule.Stops {
		stops = append(stops, gin.H{
			"station":      toStationResponse(stop.Station),
			"seq":          stop.Seq,
			"arrival_time": stop.ArrivalTime,
		})
	}

	carriages := make([]gin.H, 0, len(schedule.Carriages))
	for _, alloc := range schedule.Carriages {
		rest := 0
		if maxSeat, nowSeat, err := ticketing.SeatInfo(config.DB, schedule.ID, alloc.CarriageID); err == nil {
			rest = maxSeat - nowSeat
		}
		carriages = append(carriages, gin.H{
			"carriage":   alloc.Carriage,
			"num":        alloc.Num,
			"rest_seats": rest,
		})
	}

	return gin.H{
		"id":             schedule.ID,
		"schedule_no":    schedule.ScheduleNo,
		"departure_time": schedule.DepartureTime,
		"stations":       stops,
		"carriages":      carriages,
	}
}

// toScheduleSummary is the compact form nested inside ticket responses:
// just the run identity and its two termini.
func toScheduleSummary(schedule *models.Schedule) gin.H {
	if schedule == nil {
		return nil
	}
	out := gin.H{
		"id":             schedule.ID,
		"schedule_no":    schedule.ScheduleNo,
		"departure_time": schedule.DepartureTime,
	}
	if first := schedule.FirstStop(); first != nil {
		out["departure_station"] = toStationResponse(first.Station)
	}
	if last := schedule.LastStop(); last != nil {
		out["destination_station"] = toStationResponse(last.Station)
	}
	return out
}

// ListSchedules returns the timetable, public. Supports departure-window
// filters (after/before), terminus filters (ori/dst) and change=<ticket_id>
// to narrow down to runs option-compatible with an existing ticket.
func ListSchedules(c *gin.Context) {
	var changeTicket *models.Ticket
	if raw := c.Query("change"); raw != "" {
		ticketID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondFail(c, "没有找到改签之前的车票")
			return
		}
		var ticket models.Ticket
		if err := config.DB.First(&ticket, ticketID).Error; err != nil {
			respondFail(c, "没有找到改签之前的车票")
			return
		}
		changeTicket = &ticket
	}

	q := ticketing.ScheduleScope(config.DB)
	if raw := c.Query("after"); raw != "" {
		if t, err := parseTimestamp(raw); err == nil {
			q = q.Where("departure_time >= ?", t)
		}
	}
	if raw := c.Query("before"); raw != "" {
		if t, err := parseTimestamp(raw); err == nil {
			q = q.Where("departure_time <= ?", t)
		}
	}

	var schedules []models.Schedule
	if err := q.Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing schedules: " + err.Error()})
		return
	}

	oriID := uintQuery(c, "ori")
	dstID := uintQuery(c, "dst")

	out := make([]gin.H, 0, len(schedules))
	for i := range schedules {
		s := &schedules[i]
		if oriID != 0 || dstID != 0 {
			if !s.HasTermini(oriID, dstID) {
				continue
			}
		}
		if changeTicket != nil {
			if !s.HasTermini(changeTicket.OriStationID, changeTicket.DstStationID) {
				continue
			}
		}
		out = append(out, toScheduleResponse(s))
	}

	respondOK(c, gin.H{"schedules": out})
}

// GetSchedule returns one schedule with per-carriage remaining seats.
func GetSchedule(c *gin.Context) {
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	var schedule models.Schedule
	if err := ticketing.ScheduleScope(config.DB).First(&schedule, scheduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, "未找到编号对应的行程")
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading schedule: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"schedule": toScheduleResponse(&schedule)})
}

type scheduleInput struct {
	ScheduleNo    string   `json:"schedule_no"`
	DepartureTime string   `json:"departure_time"`
	StationIDs    []uint   `json:"station_ids"`
	ArrivalTimes  []string `json:"arrival_times"`
	CarriageIDs   []uint   `json:"carriage_ids"`
}

// CreateSchedule adds a run to the timetable, Train Admin only.
func CreateSchedule(c *gin.Context) {
	var input scheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ScheduleNo == "" || len(input.StationIDs) == 0 || len(input.CarriageIDs) == 0 ||
		input.DepartureTime == "" || len(input.ArrivalTimes) == 0 {
		respondFail(c, "必须设置行程编号、出发时间、各站点及其到达时间、车厢")
		return
	}

	var count int64
	config.DB.Model(&models.Schedule{}).Where("schedule_no = ?", input.ScheduleNo).Count(&count)
	if count > 0 {
		respondFail(c, "行程编号已存在")
		return
	}

	if len(input.StationIDs) != len(input.ArrivalTimes) {
		respondFail(c, "请为每个站点设置到达时间")
		return
	}

	departure, err := parseTimestamp(input.DepartureTime)
	if err != nil {
		respondFail(c, "出发时间格式不正确")
		return
	}
	arrivals, err := parseArrivalTimes(input.ArrivalTimes)
	if err != nil {
		respondFail(c, "到达时间格式不正确")
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	schedule := models.Schedule{ScheduleNo: input.ScheduleNo, DepartureTime: departure}
	if err := tx.Create(&schedule).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create schedule failed: " + err.Error()})
		return
	}

	if err := addStops(tx, schedule.ID, input.StationIDs, arrivals); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create stops failed: " + err.Error()})
		return
	}
	if err := addAllocations(tx, schedule.ID, input.CarriageIDs); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create allocations failed: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "设置行程成功", "schedule_id": schedule.ID})
}

// UpdateSchedule replaces stops, allocations or the departure time, then
// flags every sold ticket and notifies its holder. Train Admin only.
func UpdateSchedule(c *gin.Context) {
	user := middleware.CurrentUser(c)
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	var schedule models.Schedule
	if err := config.DB.First(&schedule, scheduleID).Error; err != nil {
		respondFail(c, "行程不存在")
		return
	}

	var input scheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(input.StationIDs) > 0 && len(input.StationIDs) != len(input.ArrivalTimes) {
		respondFail(c, "请为每个站点设置到达时间")
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	if len(input.StationIDs) > 0 {
		arrivals, err := parseArrivalTimes(input.ArrivalTimes)
		if err != nil {
			tx.Rollback()
			respondFail(c, "到达时间格式不正确")
			return
		}
		if err := tx.Where("schedule_id = ?", schedule.ID).Delete(&models.ScheduleStation{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Replace stops failed: " + err.Error()})
			return
		}
		if err := addStops(tx, schedule.ID, input.StationIDs, arrivals); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Replace stops failed: " + err.Error()})
			return
		}
	}

	if len(input.CarriageIDs) > 0 {
		if err := tx.Where("schedule_id = ?", schedule.ID).Delete(&models.ScheduleCarriage{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Replace allocations failed: " + err.Error()})
			return
		}
		if err := addAllocations(tx, schedule.ID, input.CarriageIDs); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Replace allocations failed: " + err.Error()})
			return
		}
	}

	if input.DepartureTime != "" {
		departure, err := parseTimestamp(input.DepartureTime)
		if err != nil {
			tx.Rollback()
			respondFail(c, "出发时间格式不正确")
			return
		}
		if err := tx.Model(&schedule).Update("departure_time", departure).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Update departure failed: " + err.Error()})
			return
		}
	}

	text := fmt.Sprintf("您购买的车次“%s”已发生修改。您可以免费改签其他车次", schedule.ScheduleNo)
	if err := notifyTicketHolders(tx, schedule.ID, user, text, false); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Notify ticket holders failed: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "行程修改成功"})
}

// DeleteSchedule removes a run: flags and detaches its tickets, notifies
// their holders, then deletes stops, allocations and the schedule row.
func DeleteSchedule(c *gin.Context) {
	user := middleware.CurrentUser(c)
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	var schedule models.Schedule
	if err := config.DB.First(&schedule, scheduleID).Error; err != nil {
		respondFail(c, "未找到要删除的行程")
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	text := fmt.Sprintf("您购买的车次“%s”已被取消。您可以免费改签其他车次", schedule.ScheduleNo)
	if err := notifyTicketHolders(tx, schedule.ID, user, text, true); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Notify ticket holders failed: " + err.Error()})
		return
	}

	if err := tx.Where("schedule_id = ?", schedule.ID).Delete(&models.ScheduleStation{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete stops failed: " + err.Error()})
		return
	}
	if err := tx.Where("schedule_id = ?", schedule.ID).Delete(&models.ScheduleCarriage{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete allocations failed: " + err.Error()})
		return
	}
	if err := tx.Delete(&schedule).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete schedule failed: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "行程已删除"})
}

func addStops(tx *gorm.DB, scheduleID uint, stationIDs []uint, arrivals []time.Time) error {
	for i, stationID := range stationIDs {
		stop := models.ScheduleStation{
			ScheduleID:  scheduleID,
			StationID:   stationID,
			Seq:         i,
			ArrivalTime: arrivals[i],
		}
		if err := tx.Create(&stop).Error; err != nil {
			return err
		}
	}
	return nil
}

// addAllocations collapses the carriage id list into a multiset: each
// repeated id adds one physical carriage of that type.
func addAllocations(tx *gorm.DB, scheduleID uint, carriageIDs []uint) error {
	counts := make(map[uint]int)
	order := make([]uint, 0, len(carriageIDs))
	for _, id := range carriageIDs {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	for _, id := range order {
		alloc := models.ScheduleCarriage{ScheduleID: scheduleID, CarriageID: id, Num: counts[id]}
		if err := tx.Create(&alloc).Error; err != nil {
			return err
		}
	}
	return nil
}

// notifyTicketHolders flags every ticket on the schedule as modified (and
// detaches it when the schedule is going away), then fans a system message
// out to the distinct ticket owners.
func notifyTicketHolders(tx *gorm.DB, scheduleID uint, from *models.User, text string, detach bool) error {
	var tickets []models.Ticket
	if err := tx.Where("schedule_id = ?", scheduleID).Find(&tickets).Error; err != nil {
		return err
	}
	if len(tickets) == 0 {
		return nil
	}

	updates := map[string]interface{}{"is_schedule_modified": true}
	if detach {
		updates["schedule_id"] = nil
	}
	if err := tx.Model(&models.Ticket{}).Where("schedule_id = ?", scheduleID).
		Updates(updates).Error; err != nil {
		return err
	}

	msg := models.Message{Message: text}
	if from != nil {
		msg.FromUserID = &from.ID
	}
	if err := tx.Create(&msg).Error; err != nil {
		return err
	}

	seen := make(map[uint]bool)
	for _, ticket := range tickets {
		if seen[ticket.UserID] {
			continue
		}
		seen[ticket.UserID] = true
		recipient := models.User{Model: gorm.Model{ID: ticket.UserID}}
		if err := tx.Model(&msg).Association("ToUsers").Append(&recipient); err != nil {
			return err
		}
	}

	logrus.WithField("schedule_id", scheduleID).Infof("notified %d ticket holders", len(seen))
	return nil
}

func parseArrivalTimes(raw []string) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, r := range raw {
		t, err := parseTimestamp(r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// parseTimestamp accepts RFC3339 or a bare date.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func uintQuery(c *gin.Context, key string) uint {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
