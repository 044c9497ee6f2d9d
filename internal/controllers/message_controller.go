package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rail_booker/internal/config"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
)

func toMessageResponse(msg *models.Message) gin.H {
	out := gin.H{
		"id":        msg.ID,
		"message":   msg.Message,
		"send_time": msg.CreatedAt,
	}
	if msg.FromUser != nil {
		out["from_user"] = msg.FromUser.Name
	}
	return out
}

// ListMessages returns the caller's received messages, or the sent ones
// with ?send=true.
func ListMessages(c *gin.Context) {
	user := middleware.CurrentUser(c)
	isSend := c.Query("send") == "true"

	var messages []models.Message
	var err error
	if isSend {
		err = config.DB.Where("from_user_id = ?", user.ID).Find(&messages).Error
	} else {
		err = config.DB.Preload("FromUser").
			Joins("JOIN message_recipients ON message_recipients.message_id = messages.id").
			Where("message_recipients.user_id = ?", user.ID).
			Find(&messages).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing messages: " + err.Error()})
		return
	}

	out := make([]gin.H, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageResponse(&messages[i]))
	}
	respondOK(c, gin.H{"system_messages": out})
}

// CreateMessage sends a system message to explicit recipients, admin only.
func CreateMessage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input struct {
		Message string `json:"message"`
		ToUsers []uint `json:"to_users"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(input.ToUsers) == 0 {
		respondFail(c, "消息必须设置接收人")
		return
	}

	msg := models.Message{Message: input.Message, FromUserID: &user.ID}
	if err := config.DB.Create(&msg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create message: " + err.Error()})
		return
	}

	seen := make(map[uint]bool)
	for _, toUserID := range input.ToUsers {
		if seen[toUserID] {
			continue
		}
		seen[toUserID] = true

		var toUser models.User
		if err := config.DB.First(&toUser, toUserID).Error; err != nil {
			continue // silently skip unknown recipients
		}
		if err := config.DB.Model(&msg).Association("ToUsers").Append(&toUser); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add recipient: " + err.Error()})
			return
		}
	}

	respondOK(c, gin.H{"message": "发送消息成功", "message_id": msg.ID})
}

// DeleteMessage removes one of the caller's sent messages.
func DeleteMessage(c *gin.Context) {
	user := middleware.CurrentUser(c)
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	var msg models.Message
	if err := config.DB.Where("id = ? AND from_user_id = ?", messageID, user.ID).First(&msg).Error; err != nil {
		respondFail(c, "未找到要删除的消息")
		return
	}

	tx := config.DB.Begin()
	if err := tx.Model(&msg).Association("ToUsers").Clear(); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear recipients: " + err.Error()})
		return
	}
	if err := tx.Delete(&models.Message{}, msg.ID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message: " + err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "消息已删除"})
}
