package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/storage"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Avatar   string `json:"avatar"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/users/register
func Register(store storage.Storage, secret string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			respond.Error(c, log, err)
			return
		}

		user := &models.User{
			Username:     strings.TrimSpace(input.Username),
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(input.Name),
			Email:        strings.ToLower(strings.TrimSpace(input.Email)),
			Phone:        input.Phone,
			Address:      input.Address,
			Avatar:       input.Avatar,
			Role:         models.RoleUser,
		}
		if err := store.CreateUser(c.Request.Context(), user); err != nil {
			respond.Error(c, log, err)
			return
		}

		token, err := IssueToken(secret, user, time.Now())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		log.Info("user registered", "user_id", user.ID)
		c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
	}
}

// POST /api/users/login
func Login(store storage.Storage, secret string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		user, err := store.GetUserByUsername(ctx, strings.TrimSpace(input.Username))
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}

		now := time.Now()
		if err := store.RecordLogin(ctx, user.ID, now); err != nil {
			log.Warn("failed to record login", "user_id", user.ID, "err", err)
		} else {
			user.LastLoginAt = &now
		}

		token, err := IssueToken(secret, user, now)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}
