package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/auth"
)

// SetupAuthRoutes registers registration and login.
func SetupAuthRoutes(api *gin.RouterGroup, d Deps) {
	users := api.Group("/users")
	{
		users.POST("/register", auth.Register(d.Store, d.JWTSecret, d.Log))
		users.POST("/login", auth.Login(d.Store, d.JWTSecret, d.Log))
	}
}
