package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	auth gin.HandlerFunc,
	rbacService middleware.RBACService,
	idempotency gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	leaves.Use(auth)
	{
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), idempotency, handler.Apply)
		leaves.GET("/mine", middleware.RBACAuthorize(rbacService, "leave", "read-own"), handler.ListMine)
		leaves.GET("/balance", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetBalance)
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read-all"), handler.ListAll)
		leaves.GET("/pending", middleware.RBACAuthorize(rbacService, "leave", "read-all"), handler.ListPending)
		leaves.GET("/:id", handler.GetByID)
		leaves.DELETE("/:id", middleware.RBACAuthorize(rbacService, "leave", "cancel"), handler.Cancel)
		leaves.PATCH("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "decide"), handler.Approve)
		leaves.PATCH("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "decide"), handler.Reject)
	}
}
