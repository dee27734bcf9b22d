package dashboard

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc, rbacService middleware.RBACService) {
	dashboard := r.Group("/dashboard")
	dashboard.Use(auth)
	{
		dashboard.GET("/summary", middleware.RBACAuthorize(rbacService, "dashboard", "read"), handler.Summary)
	}
}
