package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"rail_booker/internal/config"
	"rail_booker/internal/models"
)

var secret = []byte(getJWTSecret())

func getJWTSecret() string {
	if val := os.Getenv("JWT_SECRET"); val != "" {
		return val
	}
	return "supersecret" // fallback
}

// TokenTTL is the lifetime of a login token.
const TokenTTL = 2 * time.Hour

// GenerateToken signs a login token for the given user.
func GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateRegisterCode signs the pending registration data into a token
// embedded in the verification mail link.
func GenerateRegisterCode(name, password, email string) (string, error) {
	claims := jwt.MapClaims{
		"name":   name,
		"passwd": password,
		"email":  email,
		"exp":    time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseRegisterCode validates a verification code and returns the pending
// name, password and email.
func ParseRegisterCode(code string) (name, password, email string, err error) {
	token, err := jwt.Parse(code, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", "", errors.New("invalid register code")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", "", errors.New("invalid register code claims")
	}
	name, _ = claims["name"].(string)
	password, _ = claims["passwd"].(string)
	email, _ = claims["email"].(string)
	return name, password, email, nil
}

// RequireUser decodes the bearer token, loads the user row and injects it
// into the context. Failures follow the API's result/message convention:
// HTTP 200 with result=1 and a distinct message.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "无法解析 JWT"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "登陆已过期，请重新登录"})
			} else {
				c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "无法解析 JWT"})
			}
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "无法解析 JWT"})
			return
		}
		id, ok := claims["user_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "无法解析 JWT"})
			return
		}

		var user models.User
		if err := config.DB.First(&user, uint(id)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "找不到用户"})
			return
		}

		c.Set("user", &user)
		c.Next()
	}
}

// RequireRoles ensures the authenticated user holds at least one of the
// given roles. Membership is a flat capability-set check.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := RequireUser()
		req(c)
		if c.IsAborted() {
			return
		}

		user := CurrentUser(c)
		if user == nil || !user.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"result": 1, "message": "无权访问"})
			return
		}

		c.Next()
	}
}

// CurrentUser returns the user injected by RequireUser, nil when absent.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
