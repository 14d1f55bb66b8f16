package auth

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RouteConfig struct {
	LoginRatePerSec float64
	LoginRateBurst  int
}

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authMW gin.HandlerFunc, cfg RouteConfig) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimitByIP(rate.Limit(cfg.LoginRatePerSec), cfg.LoginRateBurst), handler.Login)
		auth.POST("/logout", authMW, handler.Logout)
		auth.POST("/logout-all", authMW, middleware.RateLimitByUser(0.2, 2), handler.LogoutAll)
		auth.GET("/me", authMW, middleware.RateLimitByUser(2, 5), handler.Me)
		auth.GET("/sessions", authMW, middleware.RateLimitByUser(2, 5), handler.Sessions)
	}
}
