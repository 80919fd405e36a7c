package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
)

type Dashboard interface {
	Dashboard(ctx context.Context, caller *model.User) (*model.AdminStats, error)
}

type StatsHandler struct {
	dashboard Dashboard
}

func NewStatsHandler(dashboard Dashboard) *StatsHandler {
	return &StatsHandler{dashboard: dashboard}
}

func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.dashboard.Dashboard(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{
		Users:         stats.Users,
		Orders:        stats.Orders,
		PendingOrders: stats.PendingOrders,
		Revenue:       stats.Revenue,
	})
}
