package leave

import (
	"go-leave/internal/domain"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authMW gin.HandlerFunc,
	rbacService middleware.RBACService,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	r.GET("/leave-categories",
		authMW,
		middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionReadOwn),
		handler.Categories,
	)

	leaves := r.Group("/leaves")
	leaves.Use(authMW)
	leaves.Use(middleware.ContextLogger(logger))
	{
		leaves.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionCreate),
			middleware.Idempotency(rdb, logger),
			handler.Submit,
		)
		leaves.GET("/mine",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionReadOwn),
			handler.ListMine,
		)
		leaves.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionReadAll),
			handler.ListAll,
		)
		leaves.GET("/:id",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionReadOwn),
			handler.Get,
		)
		leaves.POST("/:id/approve",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionApprove),
			handler.Approve,
		)
		leaves.POST("/:id/reject",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionApprove),
			handler.Reject,
		)
		leaves.DELETE("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionDelete),
			handler.Delete,
		)
	}
}
