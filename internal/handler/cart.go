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

type Carts interface {
	GetCart(ctx context.Context, caller *model.User) (*service.CartView, error)
	AddItem(ctx context.Context, caller *model.User, productID string, quantity int) (*service.CartView, error)
	UpdateItem(ctx context.Context, caller *model.User, productID string, quantity int) (*service.CartView, error)
	DeleteItem(ctx context.Context, caller *model.User, productID string) error
}

type CartHandler struct {
	carts Carts
}

func NewCartHandler(carts Carts) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.carts.GetCart(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	view, err := h.carts.AddItem(c.Request.Context(), middleware.GetUser(c), req.Product, req.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartResponse(view))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	view, err := h.carts.UpdateItem(c.Request.Context(), middleware.GetUser(c), c.Param("productId"), req.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	if err := h.carts.DeleteItem(c.Request.Context(), middleware.GetUser(c), c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
