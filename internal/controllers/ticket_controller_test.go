package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
	"rail_booker/internal/routes"
	"rail_booker/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db       *gorm.DB
	router   *gin.Engine
	user     *models.User
	token    string
	contact  *models.Contact
	stations []*models.Station
	carriage *models.Carriage
	schedule *models.Schedule
}

// newEnv wires a router against a fresh database with a logged-in rider
// and a three-stop run with a single-seat carriage.
func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.SetupDB(t)
	testutil.UseDB(t, db)

	user := testutil.CreateUser(t, db, "rider", models.RoleCommon)
	token, err := middleware.GenerateToken(user.ID)
	require.NoError(t, err)

	stations := []*models.Station{
		testutil.CreateStation(t, db, "S1", "North"),
		testutil.CreateStation(t, db, "S2", "Center"),
		testutil.CreateStation(t, db, "S3", "South"),
	}
	carriage := testutil.CreateCarriage(t, db, "second class", 1, "1")
	schedule := testutil.CreateSchedule(t, db, "G101", time.Now().Add(10*time.Hour),
		stations, map[uint]int{carriage.ID: 1})

	return &env{
		db:       db,
		router:   routes.SetupRouter(),
		user:     user,
		token:    token,
		contact:  testutil.CreateContact(t, db, user, "passenger"),
		stations: stations,
		carriage: carriage,
		schedule: schedule,
	}
}

func (e *env) do(t *testing.T, method, path string, body any) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "business outcomes ride on HTTP 200: %s", w.Body)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (e *env) bookBody() gin.H {
	return gin.H{
		"schedule_id":    e.schedule.ID,
		"contact_id":     e.contact.ID,
		"carriage_id":    e.carriage.ID,
		"ori_station_id": e.stations[0].ID,
		"dst_station_id": e.stations[2].ID,
	}
}

func TestCreateTicketEndpoint(t *testing.T) {
	t.Run("books a seat then reports the carriage full", func(t *testing.T) {
		e := newEnv(t)

		resp := e.do(t, http.MethodPost, "/tickets", e.bookBody())
		assert.EqualValues(t, 0, resp["result"])
		assert.Equal(t, "订票成功，请支付订单", resp["message"])
		assert.NotNil(t, resp["ticket_id"])
		assert.NotNil(t, resp["price"])

		resp = e.do(t, http.MethodPost, "/tickets", e.bookBody())
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "该类座位已满", resp["message"])
	})

	t.Run("quote returns the booking price without side effects", func(t *testing.T) {
		e := newEnv(t)

		body := e.bookBody()
		body["only_get_price"] = true
		quote := e.do(t, http.MethodPost, "/tickets", body)
		assert.EqualValues(t, 0, quote["result"])

		var count int64
		require.NoError(t, e.db.Model(&models.Ticket{}).Count(&count).Error)
		assert.Zero(t, count)

		booked := e.do(t, http.MethodPost, "/tickets", e.bookBody())
		assert.Equal(t, booked["price"], quote["price"])
	})

	t.Run("validates required fields", func(t *testing.T) {
		e := newEnv(t)

		resp := e.do(t, http.MethodPost, "/tickets", gin.H{"contact_id": e.contact.ID})
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "需要包含行程、联系人和座位类型", resp["message"])

		body := e.bookBody()
		delete(body, "ori_station_id")
		resp = e.do(t, http.MethodPost, "/tickets", body)
		assert.Equal(t, "需要包含起止站点", resp["message"])
	})

	t.Run("rejects a segment off the run", func(t *testing.T) {
		e := newEnv(t)

		body := e.bookBody()
		body["ori_station_id"] = e.stations[2].ID
		body["dst_station_id"] = e.stations[0].ID
		resp := e.do(t, http.MethodPost, "/tickets", body)
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "起止站点不在该行程经停范围内", resp["message"])
	})
}

func TestPayTicketEndpoint(t *testing.T) {
	e := newEnv(t)
	account := testutil.CreateAccount(t, e.db, e.user, "1000")

	resp := e.do(t, http.MethodPost, "/tickets", e.bookBody())
	ticketID := resp["ticket_id"]

	path := fmt.Sprintf("/tickets/%v", ticketID)

	resp = e.do(t, http.MethodPatch, path, gin.H{})
	assert.Equal(t, "必须选择支付账户", resp["message"])

	resp = e.do(t, http.MethodPatch, path, gin.H{"account_id": 9999})
	assert.Equal(t, "未找到账户", resp["message"])

	resp = e.do(t, http.MethodPatch, path, gin.H{"account_id": account.ID})
	assert.EqualValues(t, 0, resp["result"])
	assert.Equal(t, "车票订单支付成功", resp["message"])

	var acc models.Account
	require.NoError(t, e.db.First(&acc, account.ID).Error)
	assert.True(t, acc.Amount.LessThan(account.Amount), "payment must debit the account")

	resp = e.do(t, http.MethodPatch, path, gin.H{"account_id": account.ID})
	assert.EqualValues(t, 1, resp["result"])
	assert.Equal(t, "车票已支付", resp["message"])
}

func TestDeleteTicketEndpoint(t *testing.T) {
	t.Run("unpaid order is deleted", func(t *testing.T) {
		e := newEnv(t)

		resp := e.do(t, http.MethodPost, "/tickets", e.bookBody())
		path := fmt.Sprintf("/tickets/%v", resp["ticket_id"])

		resp = e.do(t, http.MethodDelete, path, nil)
		assert.EqualValues(t, 0, resp["result"])
		assert.Equal(t, "订单已删除", resp["message"])

		var count int64
		require.NoError(t, e.db.Model(&models.Ticket{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("paid order needs a refund account to cancel", func(t *testing.T) {
		e := newEnv(t)
		account := testutil.CreateAccount(t, e.db, e.user, "1000")

		resp := e.do(t, http.MethodPost, "/tickets", e.bookBody())
		path := fmt.Sprintf("/tickets/%v", resp["ticket_id"])
		e.do(t, http.MethodPatch, path, gin.H{"account_id": account.ID})

		resp = e.do(t, http.MethodDelete, path, nil)
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "必须选择退款账户", resp["message"])

		resp = e.do(t, http.MethodDelete, path, gin.H{"account_id": account.ID})
		assert.EqualValues(t, 0, resp["result"])
		assert.Equal(t, "订单已取消", resp["message"])

		var acc models.Account
		require.NoError(t, e.db.First(&acc, account.ID).Error)
		assert.True(t, acc.Amount.Equal(account.Amount), "cancellation must refund in full")
	})

	t.Run("missing order", func(t *testing.T) {
		e := newEnv(t)

		resp := e.do(t, http.MethodDelete, "/tickets/9999", nil)
		assert.Equal(t, "订单未找到", resp["message"])
	})
}

func TestChangeTicketEndpoint(t *testing.T) {
	e := newEnv(t)
	other := testutil.CreateSchedule(t, e.db, "G102", e.schedule.DepartureTime.Add(time.Hour),
		[]*models.Station{e.stations[0], e.stations[2]}, map[uint]int{e.carriage.ID: 1})

	resp := e.do(t, http.MethodPost, "/tickets", e.bookBody())
	path := fmt.Sprintf("/tickets/%v", resp["ticket_id"])

	resp = e.do(t, http.MethodPut, path, gin.H{"carriage_id": e.carriage.ID})
	assert.Equal(t, "改签必须指定目标车票和座位号", resp["message"])

	resp = e.do(t, http.MethodPut, path, gin.H{"new_schedule_id": other.ID, "carriage_id": e.carriage.ID})
	assert.EqualValues(t, 0, resp["result"])
	assert.Equal(t, "车票已改签", resp["message"])
}

func TestTicketAuth(t *testing.T) {
	e := newEnv(t)

	t.Run("missing token", func(t *testing.T) {
		anon := &env{router: e.router}
		resp := anon.do(t, http.MethodGet, "/tickets", nil)
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "无法解析 JWT", resp["message"])
	})

	t.Run("role gate on admin surface", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/stations", gin.H{"station_no": "S9", "name": "West"})
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "无权访问", resp["message"])
	})

	t.Run("tickets are scoped to their owner", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/tickets", e.bookBody())
		path := fmt.Sprintf("/tickets/%v", resp["ticket_id"])

		stranger := testutil.CreateUser(t, e.db, "stranger", models.RoleCommon)
		strangerToken, err := middleware.GenerateToken(stranger.ID)
		require.NoError(t, err)

		them := &env{router: e.router, token: strangerToken}
		resp = them.do(t, http.MethodGet, path, nil)
		assert.EqualValues(t, 1, resp["result"])
		assert.Equal(t, "车票未找到", resp["message"])
	})
}
