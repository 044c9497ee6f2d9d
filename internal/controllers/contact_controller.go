package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rail_booker/internal/config"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
)

// ListContacts returns the caller's travel contacts.
func ListContacts(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var contacts []models.Contact
	if err := config.DB.Where("user_id = ?", user.ID).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing contacts: " + err.Error()})
		return
	}
	respondOK(c, gin.H{"contacts": contacts})
}

// CreateContact adds a traveler identity for the caller.
func CreateContact(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input struct {
		Name      string `json:"name"`
		Gender    string `json:"gender"`
		Birthdate string `json:"birthdate"`
		IDCard    string `json:"id_card"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name == "" || input.Birthdate == "" || input.IDCard == "" {
		respondFail(c, "必须包含姓名、生日和身份证号")
		return
	}

	if input.Gender == "" {
		input.Gender = models.GenderUnknown
	}
	switch input.Gender {
	case models.GenderMale, models.GenderFemale, models.GenderUnknown:
	default:
		respondFail(c, "性别必须为 M 或 F")
		return
	}

	birthdate, err := parseDate(input.Birthdate)
	if err != nil {
		respondFail(c, "生日格式不正确")
		return
	}

	var count int64
	config.DB.Model(&models.Contact{}).
		Where("user_id = ? AND id_card = ?", user.ID, input.IDCard).Count(&count)
	if count > 0 {
		respondFail(c, "该联系人已添加")
		return
	}

	contact := models.Contact{
		Name:      input.Name,
		Gender:    input.Gender,
		Birthdate: birthdate,
		IDCard:    input.IDCard,
		UserID:    user.ID,
	}
	if err := config.DB.Create(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create contact: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "添加联系人成功", "contact_id": contact.ID})
}

// DeleteContact removes a contact unless a ticket still references it.
// The restriction is an explicit check, not a database cascade.
func DeleteContact(c *gin.Context) {
	user := middleware.CurrentUser(c)
	contactID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact ID"})
		return
	}

	var contact models.Contact
	if err := config.DB.Where("id = ? AND user_id = ?", contactID, user.ID).First(&contact).Error; err != nil {
		respondFail(c, "未找到联系人")
		return
	}

	var referencing int64
	config.DB.Model(&models.Ticket{}).Where("contact_id = ?", contact.ID).Count(&referencing)
	if referencing > 0 {
		respondFail(c, "该联系人已经被用于购买车票，无法删除")
		return
	}

	if err := config.DB.Delete(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete contact: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "成功删除联系人"})
}

// parseDate accepts a bare date or a full RFC3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
