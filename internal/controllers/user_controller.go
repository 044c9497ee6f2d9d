package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rail_booker/internal/config"
	"rail_booker/internal/mailer"
	"rail_booker/internal/middleware"
	"rail_booker/internal/models"
)

// StartRegister checks name/email availability, signs the pending data
// into a verification code and mails the verification link.
func StartRegister(c *gin.Context) {
	var input struct {
		Name   string `json:"name" binding:"required"`
		Passwd string `json:"passwd" binding:"required"`
		Email  string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	config.DB.Model(&models.User{}).Where("name = ?", input.Name).Count(&count)
	if count > 0 {
		respondFail(c, "用户名已被注册")
		return
	}
	config.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&count)
	if count > 0 {
		respondFail(c, "邮箱已被注册")
		return
	}

	code, err := middleware.GenerateRegisterCode(input.Name, input.Passwd, input.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate register code"})
		return
	}

	link := fmt.Sprintf("http://%s%s/%s", c.Request.Host, c.Request.URL.Path, code)
	err = mailer.Default.Send(
		"畅行铁路用户注册",
		"请按提示完成注册验证",
		fmt.Sprintf(`<a href="%s">点击完成注册</a>`, link),
		[]string{input.Email},
	)
	if err != nil {
		respondFail(c, fmt.Sprintf("邮件发送失败，%v", err))
		return
	}

	respondOK(c, gin.H{"message": "已发送认证邮件"})
}

// VerifyRegister consumes a verification code and creates the user with
// the Common User role. Responds plain text since the link is opened in a
// browser.
func VerifyRegister(c *gin.Context) {
	name, passwd, email, err := middleware.ParseRegisterCode(c.Param("code"))
	if err != nil {
		c.String(http.StatusOK, "认证已过期或无法解析")
		return
	}

	var count int64
	config.DB.Model(&models.User{}).Where("name = ? OR email = ?", name, email).Count(&count)
	if count > 0 {
		c.String(http.StatusOK, "用户已被注册")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	if err != nil {
		c.String(http.StatusInternalServerError, "无法加密密码")
		return
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Roles:    pq.StringArray{models.RoleCommon},
	}
	if err := config.DB.Create(&user).Error; err != nil {
		logrus.WithError(err).Error("VerifyRegister: create user failed")
		c.String(http.StatusInternalServerError, "注册失败")
		return
	}

	c.String(http.StatusOK, "注册成功！")
}

// Login authenticates by name or email and issues a short-lived JWT.
func Login(c *gin.Context) {
	var input struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Passwd string `json:"passwd"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	var err error
	switch {
	case input.Name != "":
		err = config.DB.Where("name = ?", input.Name).First(&user).Error
	case input.Email != "":
		err = config.DB.Where("email = ?", input.Email).First(&user).Error
	default:
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, "未找到用户，请检查邮箱或用户名是否正确")
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Passwd)); err != nil {
		respondFail(c, "密码不正确")
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	respondOK(c, gin.H{"message": "登陆成功", "jwt": token})
}

// ListUsers returns every user with accounts, System Admin only.
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Preload("Accounts").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing users: " + err.Error()})
		return
	}
	respondOK(c, gin.H{"users": users})
}

// CreateUser adds a user with explicit roles, System Admin only.
func CreateUser(c *gin.Context) {
	var input struct {
		Name   string   `json:"name"`
		Passwd string   `json:"passwd"`
		Email  string   `json:"email"`
		Roles  []string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name == "" {
		respondFail(c, "必须包含用户名")
		return
	}

	var count int64
	config.DB.Model(&models.User{}).Where("name = ?", input.Name).Count(&count)
	if count > 0 {
		respondFail(c, "用户名已存在")
		return
	}
	if input.Email != "" {
		config.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&count)
		if count > 0 {
			respondFail(c, "邮箱已存在")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Passwd), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hash),
		Roles:    pq.StringArray(input.Roles),
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "添加用户成功"})
}

// UpdateUser patches name/password/email/roles, System Admin only.
func UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		respondFail(c, "用户不存在")
		return
	}

	var input struct {
		Name   *string  `json:"name"`
		Passwd *string  `json:"passwd"`
		Email  *string  `json:"email"`
		Roles  []string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != nil {
		var count int64
		config.DB.Model(&models.User{}).Where("name = ? AND id <> ?", *input.Name, user.ID).Count(&count)
		if count == 0 {
			user.Name = *input.Name
		}
	}
	if input.Passwd != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Passwd), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
			return
		}
		user.Password = string(hash)
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Roles != nil {
		user.Roles = pq.StringArray(input.Roles)
	}

	if err := config.DB.Save(&user).Error; err != nil {
		respondFail(c, fmt.Sprintf("更新用户数据失败，%v", err))
		return
	}

	respondOK(c, gin.H{"message": "更新用户数据成功"})
}

// DeleteUser removes a user, System Admin only.
func DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		respondFail(c, "用户不存在")
		return
	}

	if err := config.DB.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user: " + err.Error()})
		return
	}

	respondOK(c, gin.H{"message": "用户已删除"})
}
