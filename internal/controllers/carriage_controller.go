package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rail_booker/internal/config"
	"rail_booker/internal/models"
)

// ListCarriages returns the carriage-type catalog, public.
func ListCarriages(c *gin.Context) {
	var carriages []models.Carriage
	if err := config.DB.Find(&carriages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing carriages: " + err.Error()})
		return
	}
	respondOK(c, gin.H{"carriages": carriages})
}

// CreateCarriage adds a carriage type, Train Admin only.
func CreateCarriage(c *gin.Context) {
	var input struct {
		Name         string `json:"name"`
		SeatNum      int    `json:"seat_num"`
		IncreaseRate string `json:"increase_rate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name == "" || input.SeatNum == 0 {
		respondFail(c, "必须设置车厢名和车厢座位数")
		return
	}

	var count int64
	config.DB.Model(&models.Carriage{}).Where("name = ?", input.Name).Count(&count)
	if count > 0 {
		respondFail(c, "车厢名已存在")
		return
	}

	rate := decimal.NewFromInt(1)
	if input.IncreaseRate != "" {
		parsed, err := decimal.NewFromString(input.IncreaseRate)
		if err != nil || !parsed.IsPositive() {
			respondFail(c, "票价倍率格式不正确")
			return
		}
		rate = parsed
	}

	carriage := models.Carriage{
		Name:         input.Name,
		SeatNum:      input.SeatNum,
		IncreaseRate: rate,
	}
	if err := config.DB.Create(&carriage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create carriage: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "添加车厢成功", "carriage_id": carriage.ID})
}
