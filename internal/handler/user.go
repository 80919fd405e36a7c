package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

type Users interface {
	UpdateProfile(ctx context.Context, caller *model.User, in service.ProfileInput) (*model.User, error)
	ListUsers(ctx context.Context, caller *model.User) ([]service.UserSummary, error)
	GetUserDetail(ctx context.Context, caller *model.User, id string) (*model.User, []model.Order, error)
	ToggleBlock(ctx context.Context, caller *model.User, id string) (*model.User, error)
}

type UserHandler struct {
	users Users
}

func NewUserHandler(users Users) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.GetUser(c), service.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) List(c *gin.Context) {
	rows, err := h.users.ListUsers(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.UserSummaryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.UserSummaryResponse{
			UserResponse: toUserResponse(&rows[i].User),
			OrdersCount:  rows[i].Stats.OrdersCount,
			TotalSpent:   rows[i].Stats.TotalSpent,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, orders, err := h.users.GetUserDetail(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserDetailResponse{User: toUserResponse(user), Orders: toOrderList(orders)})
}

func (h *UserHandler) ToggleBlock(c *gin.Context) {
	user, err := h.users.ToggleBlock(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "user unblocked"
	if user.IsBlocked {
		msg = "user blocked"
	}
	c.JSON(http.StatusOK, dto.BlockResponse{Message: msg, IsBlocked: user.IsBlocked})
}
