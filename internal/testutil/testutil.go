package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rail_booker/internal/config"
	"rail_booker/internal/models"
)

var dbCounter int64

// SetupDB opens a fresh in-memory database with the full schema. Each call
// gets its own named shared-cache instance so parallel tests stay isolated.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:railbooker_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

// UseDB installs db as the global handle used by controllers and restores
// the previous one when the test finishes.
func UseDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	prev := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = prev })
}

func CreateUser(t *testing.T, db *gorm.DB, name string, roles ...string) *models.User {
	t.Helper()

	user := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "x",
		Roles:    pq.StringArray(roles),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func CreateAccount(t *testing.T, db *gorm.DB, user *models.User, balance string) *models.Account {
	t.Helper()

	amount, err := decimal.NewFromString(balance)
	require.NoError(t, err)
	account := models.Account{
		Name:           "default",
		CardID:         fmt.Sprintf("card-%d-%d", user.ID, time.Now().UnixNano()),
		CardHolderName: user.Name,
		Amount:         amount,
		UserID:         user.ID,
	}
	require.NoError(t, db.Create(&account).Error)
	return &account
}

func CreateContact(t *testing.T, db *gorm.DB, user *models.User, name string) *models.Contact {
	t.Helper()

	contact := models.Contact{
		Name:      name,
		Gender:    models.GenderUnknown,
		Birthdate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		IDCard:    fmt.Sprintf("id-%d-%s", user.ID, name),
		UserID:    user.ID,
	}
	require.NoError(t, db.Create(&contact).Error)
	return &contact
}

func CreateStation(t *testing.T, db *gorm.DB, no, name string) *models.Station {
	t.Helper()

	station := models.Station{StationNo: no, Name: name}
	require.NoError(t, db.Create(&station).Error)
	return &station
}

func CreateCarriage(t *testing.T, db *gorm.DB, name string, seats int, rate string) *models.Carriage {
	t.Helper()

	r, err := decimal.NewFromString(rate)
	require.NoError(t, err)
	carriage := models.Carriage{Name: name, SeatNum: seats, IncreaseRate: r}
	require.NoError(t, db.Create(&carriage).Error)
	return &carriage
}

// CreateSchedule builds a run calling at the given stations in order, one
// hour apart, with the given carriage allocations (carriage id -> count).
func CreateSchedule(t *testing.T, db *gorm.DB, no string, departure time.Time, stations []*models.Station, allocations map[uint]int) *models.Schedule {
	t.Helper()

	schedule := models.Schedule{ScheduleNo: no, DepartureTime: departure}
	require.NoError(t, db.Create(&schedule).Error)

	for i, station := range stations {
		stop := models.ScheduleStation{
			ScheduleID:  schedule.ID,
			StationID:   station.ID,
			Seq:         i,
			ArrivalTime: departure.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(&stop).Error)
	}
	for carriageID, num := range allocations {
		alloc := models.ScheduleCarriage{ScheduleID: schedule.ID, CarriageID: carriageID, Num: num}
		require.NoError(t, db.Create(&alloc).Error)
	}
	return &schedule
}
