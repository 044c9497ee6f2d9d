package controllers

import (
	"errors"
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

func toTicketResponse(ticket *models.Ticket) gin.H {
	return gin.H{
		"id":                   ticket.ID,
		"create_time":          ticket.CreatedAt,
		"amount":               ticket.Amount,
		"is_paid":              ticket.IsPaid,
		"is_schedule_modified": ticket.IsScheduleModified,
		"is_expired":           ticket.IsExpired(time.Now()),
		"seat_no":              ticket.SeatNo,
		"schedule":             toScheduleSummary(ticket.Schedule),
		"carriage":             gin.H{"id": ticket.Carriage.ID, "name": ticket.Carriage.Name},
		"contact":              ticket.Contact,
		"ori_station":          toStationResponse(ticket.OriStation),
		"dst_station":          toStationResponse(ticket.DstStation),
	}
}

func ticketScope(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Schedule.Stops", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }).
		Preload("Schedule.Stops.Station").
		Preload("Carriage").
		Preload("Contact").
		Preload("OriStation").
		Preload("DstStation")
}

// ListTickets returns the caller's tickets.
func ListTickets(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var tickets []models.Ticket
	if err := ticketScope(config.DB).Where("user_id = ?", user.ID).Find(&tickets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing tickets: " + err.Error()})
		return
	}

	out := make([]gin.H, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicketResponse(&tickets[i]))
	}
	respondOK(c, gin.H{"tickets": out})
}

// GetTicket returns one of the caller's tickets.
func GetTicket(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	var ticket models.Ticket
	if err := ticketScope(config.DB).Where("id = ? AND user_id = ?", ticketID, user.ID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, "车票未找到")
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading ticket: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"ticket": toTicketResponse(&ticket)})
}

// CreateTicket books a seat, or just quotes the fare when only_get_price
// is set. The quote path is side-effect free and always prices the same
// as the booking path for identical inputs.
func CreateTicket(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input struct {
		ScheduleID   uint `json:"schedule_id"`
		ContactID    uint `json:"contact_id"`
		CarriageID   uint `json:"carriage_id"`
		OriStationID uint `json:"ori_station_id"`
		DstStationID uint `json:"dst_station_id"`
		OnlyGetPrice bool `json:"only_get_price"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ScheduleID == 0 || input.ContactID == 0 || input.CarriageID == 0 {
		respondFail(c, "需要包含行程、联系人和座位类型")
		return
	}
	if input.OriStationID == 0 || input.DstStationID == 0 {
		respondFail(c, "需要包含起止站点")
		return
	}

	req := ticketing.BookRequest{
		ScheduleID:   input.ScheduleID,
		ContactID:    input.ContactID,
		CarriageID:   input.CarriageID,
		OriStationID: input.OriStationID,
		DstStationID: input.DstStationID,
	}

	if input.OnlyGetPrice {
		price, err := ticketing.Quote(config.DB, user, req)
		if err != nil {
			failBooking(c, err)
			return
		}
		respondOK(c, gin.H{"price": price})
		return
	}

	ticket, err := ticketing.Book(config.DB, user, req)
	if err != nil {
		failBooking(c, err)
		return
	}

	respondOK(c, gin.H{
		"message":   "订票成功，请支付订单",
		"ticket_id": ticket.ID,
		"price":     ticket.Amount,
	})
}

func failBooking(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ticketing.ErrContactNotFound):
		respondFail(c, "未找到联系人")
	case errors.Is(err, ticketing.ErrScheduleNotFound):
		respondFail(c, "未找到行程")
	case errors.Is(err, ticketing.ErrCarriageNotFound):
		respondFail(c, "未找到座位类型")
	case errors.Is(err, ticketing.ErrSegmentNotServed):
		respondFail(c, "起止站点不在该行程经停范围内")
	case errors.Is(err, ticketing.ErrSeatFull):
		respondFail(c, "该类座位已满")
	default:
		logrus.WithError(err).Error("CreateTicket: booking failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ChangeTicket rebooks a ticket onto an option-compatible run.
func ChangeTicket(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	var input struct {
		NewScheduleID uint `json:"new_schedule_id"`
		CarriageID    uint `json:"carriage_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.NewScheduleID == 0 || input.CarriageID == 0 {
		respondFail(c, "改签必须指定目标车票和座位号")
		return
	}

	_, err = ticketing.Change(config.DB, user, uint(ticketID), input.NewScheduleID, input.CarriageID)
	if err != nil {
		switch {
		case errors.Is(err, ticketing.ErrScheduleNotFound):
			respondFail(c, "行程未找到")
		case errors.Is(err, ticketing.ErrCarriageNotFound):
			respondFail(c, "座位未找到")
		case errors.Is(err, ticketing.ErrTicketNotFound):
			respondFail(c, "车票未找到")
		case errors.Is(err, ticketing.ErrNotChangeable):
			respondFail(c, "该车票不可改签")
		case errors.Is(err, ticketing.ErrNotOptionCompatible):
			respondFail(c, "改签行程必须和原行程起始点相同")
		case errors.Is(err, ticketing.ErrDepartureTooLate):
			respondFail(c, "改签行程发车时间不能晚于原行程发车后24小时")
		case errors.Is(err, ticketing.ErrSeatFull):
			respondFail(c, "该类座位已满")
		default:
			logrus.WithError(err).Error("ChangeTicket: change failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	respondOK(c, gin.H{"message": "车票已改签"})
}

// PayTicket debits an account and marks the ticket paid atomically.
func PayTicket(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	var input struct {
		AccountID uint `json:"account_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.AccountID == 0 {
		respondFail(c, "必须选择支付账户")
		return
	}

	if err := ticketing.Pay(config.DB, user, uint(ticketID), input.AccountID); err != nil {
		switch {
		case errors.Is(err, ticketing.ErrAccountNotFound):
			respondFail(c, "未找到账户")
		case errors.Is(err, ticketing.ErrTicketNotFound):
			respondFail(c, "未找到要支付的车票")
		case errors.Is(err, ticketing.ErrAlreadyPaid):
			respondFail(c, "车票已支付")
		case errors.Is(err, ticketing.ErrScheduleChanged):
			respondFail(c, "所购列车行程已更改，请重新购票")
		case errors.Is(err, ticketing.ErrOrderExpired):
			respondFail(c, "车票订单已过期，请删除订单")
		case errors.Is(err, ticketing.ErrInsufficientBalance):
			respondFail(c, "账户余额不足")
		default:
			logrus.WithError(err).Error("PayTicket: payment failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	respondOK(c, gin.H{"message": "车票订单支付成功"})
}

// DeleteTicket removes an unpaid/expired order, or cancels a paid ticket
// with a refund to the given account.
func DeleteTicket(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}

	// Body is optional; only a cancellation needs the refund account.
	var input struct {
		AccountID uint `json:"account_id"`
	}
	_ = c.ShouldBindJSON(&input)

	var refundAccountID *uint
	if input.AccountID != 0 {
		refundAccountID = &input.AccountID
	}

	canceled, err := ticketing.Remove(config.DB, user, uint(ticketID), refundAccountID)
	if err != nil {
		switch {
		case errors.Is(err, ticketing.ErrTicketNotFound):
			respondFail(c, "订单未找到")
		case errors.Is(err, ticketing.ErrRefundAccountRequired):
			respondFail(c, "必须选择退款账户")
		case errors.Is(err, ticketing.ErrAccountNotFound):
			respondFail(c, "未找到账户")
		case errors.Is(err, ticketing.ErrNotCancelable):
			respondFail(c, "订单不可取消")
		case errors.Is(err, ticketing.ErrNotDeletable):
			respondFail(c, "订单不可删除")
		default:
			logrus.WithError(err).Error("DeleteTicket: delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if canceled {
		respondOK(c, gin.H{"message": "订单已取消"})
	} else {
		respondOK(c, gin.H{"message": "订单已删除"})
	}
}
