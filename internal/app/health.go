package app

import (
	"net/http"
	"time"

	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func Health(c *gin.Context) {
	response.Success(c, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC(),
	}, nil)
}
