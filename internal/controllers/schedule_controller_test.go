package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gin-gonic/gin"

	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
	"rail_booker/internal/testutil"
)

// asAdmin returns a view of the environment authenticated as a fresh
// Train Admin.
func (e *env) asAdmin(t *testing.T) *env {
	t.Helper()

	admin := testutil.CreateUser(t, e.db, "dispatcher", models.RoleTrainAdmin)
	token, err := middleware.GenerateToken(admin.ID)
	require.NoError(t, err)
	return &env{db: e.db, router: e.router, user: admin, token: token}
}

func TestCreateScheduleEndpoint(t *testing.T) {
	e := newEnv(t)
	admin := e.asAdmin(t)

	departure := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	body := gin.H{
		"schedule_no":    "D202",
		"departure_time": departure.Format(time.RFC3339),
		"station_ids":    []uint{e.stations[0].ID, e.stations[1].ID, e.stations[2].ID},
		"arrival_times": []string{
			departure.Format(time.RFC3339),
			departure.Add(time.Hour).Format(time.RFC3339),
			departure.Add(2 * time.Hour).Format(time.RFC3339),
		},
		// Repeating a carriage id couples two physical carriages of
		// that type to the run.
		"carriage_ids": []uint{e.carriage.ID, e.carriage.ID},
	}

	resp := admin.do(t, http.MethodPost, "/schedules", body)
	require.EqualValues(t, 0, resp["result"], "create failed: %v", resp["message"])
	assert.Equal(t, "设置行程成功", resp["message"])
	scheduleID := resp["schedule_id"]

	resp = admin.do(t, http.MethodPost, "/schedules", body)
	assert.Equal(t, "行程编号已存在", resp["message"])

	missing := e.do(t, http.MethodGet, "/schedules/9999", nil)
	assert.EqualValues(t, 1, missing["result"])
	assert.Equal(t, "未找到编号对应的行程", missing["message"])

	detail := e.do(t, http.MethodGet, fmt.Sprintf("/schedules/%v", scheduleID), nil)
	require.EqualValues(t, 0, detail["result"])
	schedule := detail["schedule"].(map[string]any)
	assert.Len(t, schedule["stations"], 3)

	carriages := schedule["carriages"].([]any)
	require.Len(t, carriages, 1)
	alloc := carriages[0].(map[string]any)
	assert.EqualValues(t, 2, alloc["num"])
	assert.EqualValues(t, 2, alloc["rest_seats"], "two coupled single-seat carriages, nothing sold")
}

func TestCreateScheduleValidation(t *testing.T) {
	e := newEnv(t)
	admin := e.asAdmin(t)

	resp := admin.do(t, http.MethodPost, "/schedules", gin.H{"schedule_no": "D203"})
	assert.Equal(t, "必须设置行程编号、出发时间、各站点及其到达时间、车厢", resp["message"])

	resp = admin.do(t, http.MethodPost, "/schedules", gin.H{
		"schedule_no":    "D203",
		"departure_time": "2026-10-01T08:00:00Z",
		"station_ids":    []uint{e.stations[0].ID, e.stations[1].ID},
		"arrival_times":  []string{"2026-10-01T08:00:00Z"},
		"carriage_ids":   []uint{e.carriage.ID},
	})
	assert.Equal(t, "请为每个站点设置到达时间", resp["message"])

	// A Common User cannot touch the timetable.
	resp = e.do(t, http.MethodPost, "/schedules", gin.H{})
	assert.Equal(t, "无权访问", resp["message"])
}

func TestUpdateScheduleFlagsTickets(t *testing.T) {
	e := newEnv(t)
	admin := e.asAdmin(t)

	booked := e.do(t, http.MethodPost, "/tickets", e.bookBody())
	require.EqualValues(t, 0, booked["result"])

	newDeparture := e.schedule.DepartureTime.Add(3 * time.Hour)
	resp := admin.do(t, http.MethodPut, fmt.Sprintf("/schedules/%d", e.schedule.ID),
		gin.H{"departure_time": newDeparture.Format(time.RFC3339)})
	require.EqualValues(t, 0, resp["result"], "update failed: %v", resp["message"])
	assert.Equal(t, "行程修改成功", resp["message"])

	var ticket models.Ticket
	require.NoError(t, e.db.First(&ticket, "user_id = ?", e.user.ID).Error)
	assert.True(t, ticket.IsScheduleModified)
	require.NotNil(t, ticket.ScheduleID, "a modified run keeps its tickets attached")

	var msg models.Message
	require.NoError(t, e.db.Preload("ToUsers").Last(&msg).Error)
	want := fmt.Sprintf("您购买的车次“%s”已发生修改。您可以免费改签其他车次", e.schedule.ScheduleNo)
	assert.Equal(t, want, msg.Message)
	require.Len(t, msg.ToUsers, 1)
	assert.Equal(t, e.user.ID, msg.ToUsers[0].ID)
}

func TestDeleteScheduleDetachesTickets(t *testing.T) {
	e := newEnv(t)
	admin := e.asAdmin(t)

	booked := e.do(t, http.MethodPost, "/tickets", e.bookBody())
	require.EqualValues(t, 0, booked["result"])

	resp := admin.do(t, http.MethodDelete, fmt.Sprintf("/schedules/%d", e.schedule.ID), nil)
	require.EqualValues(t, 0, resp["result"], "delete failed: %v", resp["message"])
	assert.Equal(t, "行程已删除", resp["message"])

	var ticket models.Ticket
	require.NoError(t, e.db.First(&ticket, "user_id = ?", e.user.ID).Error)
	assert.True(t, ticket.IsScheduleModified)
	assert.Nil(t, ticket.ScheduleID, "tickets of a cancelled run are detached")

	var msg models.Message
	require.NoError(t, e.db.Last(&msg).Error)
	assert.Equal(t, fmt.Sprintf("您购买的车次“%s”已被取消。您可以免费改签其他车次", e.schedule.ScheduleNo), msg.Message)

	var count int64
	require.NoError(t, e.db.Model(&models.Schedule{}).Where("id = ?", e.schedule.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, e.db.Model(&models.ScheduleStation{}).Where("schedule_id = ?", e.schedule.ID).Count(&count).Error)
	assert.Zero(t, count)

	// The orphaned ticket still shows up for its owner.
	listed := e.do(t, http.MethodGet, "/tickets", nil)
	require.EqualValues(t, 0, listed["result"])
	assert.Len(t, listed["tickets"], 1)
}

func TestListSchedulesFilters(t *testing.T) {
	e := newEnv(t)
	// Reverse run between the same endpoints.
	reverse := testutil.CreateSchedule(t, e.db, "G201", time.Now().Add(12*time.Hour),
		[]*models.Station{e.stations[2], e.stations[1], e.stations[0]},
		map[uint]int{e.carriage.ID: 1})

	anon := &env{db: e.db, router: e.router}

	resp := anon.do(t, http.MethodGet, "/schedules", nil)
	require.EqualValues(t, 0, resp["result"])
	assert.Len(t, resp["schedules"], 2, "the timetable is public")

	path := fmt.Sprintf("/schedules?ori=%d&dst=%d", e.stations[2].ID, e.stations[0].ID)
	resp = anon.do(t, http.MethodGet, path, nil)
	schedules := resp["schedules"].([]any)
	require.Len(t, schedules, 1)
	assert.Equal(t, reverse.ScheduleNo, schedules[0].(map[string]any)["schedule_no"])

	t.Run("change filter keeps option-compatible runs only", func(t *testing.T) {
		booked := e.do(t, http.MethodPost, "/tickets", e.bookBody())
		require.EqualValues(t, 0, booked["result"])

		resp := anon.do(t, http.MethodGet, fmt.Sprintf("/schedules?change=%v", booked["ticket_id"]), nil)
		schedules := resp["schedules"].([]any)
		require.Len(t, schedules, 1, "the reverse run shares no termini with the ticket")
		assert.Equal(t, e.schedule.ScheduleNo, schedules[0].(map[string]any)["schedule_no"])

		resp = anon.do(t, http.MethodGet, "/schedules?change=9999", nil)
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "没有找到改签之前的车票", resp["message"])
	})
}
