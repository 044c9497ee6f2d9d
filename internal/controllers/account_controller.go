package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rail_booker/internal/config"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
)

// ListAccounts returns the caller's payment accounts.
func ListAccounts(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var accounts []models.Account
	if err := config.DB.Where("user_id = ?", user.ID).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing accounts: " + err.Error()})
		return
	}
	respondOK(c, gin.H{"accounts": accounts})
}

// CreateAccount registers a new payment card for the caller.
func CreateAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input struct {
		AccountName    string `json:"account_name"`
		CardHolderName string `json:"card_holder_name"`
		CardID         string `json:"card_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.CardHolderName == "" || input.CardID == "" {
		respondFail(c, "必须填写持卡人和卡号")
		return
	}

	var count int64
	config.DB.Model(&models.Account{}).
		Where("user_id = ? AND card_id = ?", user.ID, input.CardID).Count(&count)
	if count > 0 {
		respondFail(c, "该银行卡已经被添加过了")
		return
	}

	// TODO: verify card_id/card_holder_name against the bank before
	// accepting the card.
	verifySuccess := true
	if !verifySuccess {
		respondFail(c, "银行卡信息认证未通过")
		return
	}

	name := input.AccountName
	if name == "" {
		name = "undefined"
	}

	account := models.Account{
		Name:           name,
		CardID:         input.CardID,
		CardHolderName: input.CardHolderName,
		Amount:         decimal.Zero,
		UserID:         user.ID,
	}
	if err := config.DB.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "创建账户成功", "account_id": account.ID})
}

// RechargeAccount tops up the balance of one of the caller's accounts.
func RechargeAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	accountID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	var account models.Account
	if err := config.DB.Where("id = ? AND user_id = ?", accountID, user.ID).First(&account).Error; err != nil {
		respondFail(c, "该账户不存在")
		return
	}

	var input struct {
		Amount string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Amount == "" {
		respondFail(c, "必须输入金额")
		return
	}

	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || amount.IsNegative() {
		respondFail(c, "金额格式不正确")
		return
	}

	// TODO: move the money from the bank before crediting the balance.
	account.Amount = account.Amount.Add(amount)
	if err := config.DB.Model(&models.Account{}).Where("id = ?", account.ID).
		Update("amount", account.Amount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recharge failed: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "充值成功"})
}

// DeleteAccount removes one of the caller's accounts.
func DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	accountID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	var account models.Account
	if err := config.DB.Where("id = ? AND user_id = ?", accountID, user.ID).First(&account).Error; err != nil {
		respondFail(c, "该账户不存在")
		return
	}

	if err := config.DB.Delete(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete account: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "成功删除账户"})
}
