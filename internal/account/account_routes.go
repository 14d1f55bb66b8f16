package account

import (
	"go-leave/internal/domain"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authMW gin.HandlerFunc,
	rbacService middleware.RBACService,
	logger *zap.Logger,
) {
	accounts := r.Group("/accounts")
	accounts.Use(authMW)
	accounts.Use(middleware.ContextLogger(logger))
	{
		accounts.GET("/me",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, domain.ResourceAccount, domain.ActionReadOwn),
			handler.GetMe,
		)

		accounts.PUT("/me",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, domain.ResourceAccount, domain.ActionUpdate),
			handler.UpdateMe,
		)

		accounts.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, domain.ResourceAccount, domain.ActionReadAll),
			handler.List,
		)

		accounts.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, domain.ResourceAccount, domain.ActionCreate),
			handler.Create,
		)

		accounts.POST("/:username/adjustments",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, domain.ResourceAccount, domain.ActionAdjust),
			handler.AdjustBalance,
		)

		accounts.GET("/:username/adjustments",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, domain.ResourceAccount, domain.ActionReadAll),
			handler.ListAdjustments,
		)
	}
}
