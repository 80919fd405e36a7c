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

type Orders interface {
	PlaceOrder(ctx context.Context, caller *model.User, in service.PlaceOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, caller *model.User, id string) (*model.Order, error)
	ListMyOrders(ctx context.Context, caller *model.User) ([]model.Order, error)
	ListAllOrders(ctx context.Context, caller *model.User) ([]model.Order, error)
	Ship(ctx context.Context, caller *model.User, id string) (*model.Order, error)
	Deliver(ctx context.Context, caller *model.User, id string) (*model.Order, error)
	Cancel(ctx context.Context, caller *model.User, id string) (*model.Order, error)
}

type OrderHandler struct {
	orders Orders
}

func NewOrderHandler(orders Orders) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	lines := make([]service.OrderLine, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		lines = append(lines, service.OrderLine{ProductID: item.Product, Quantity: item.Qty})
	}
	addr := req.ShippingAddress

	order, err := h.orders.PlaceOrder(c.Request.Context(), middleware.GetUser(c), service.PlaceOrderInput{
		Items: lines,
		ShippingAddress: model.ShippingAddress{
			FullName:     addr.FullName,
			Phone:        addr.Phone,
			AddressLine1: addr.AddressLine1,
			City:         addr.City,
			State:        addr.State,
			PostalCode:   addr.PostalCode,
			Country:      addr.Country,
		},
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orders.ListMyOrders(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders))
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.orders.ListAllOrders(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

type transitionFunc func(ctx context.Context, caller *model.User, id string) (*model.Order, error)

func (h *OrderHandler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := fn(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

func (h *OrderHandler) Ship(c *gin.Context)    { h.transition(h.orders.Ship)(c) }
func (h *OrderHandler) Deliver(c *gin.Context) { h.transition(h.orders.Deliver)(c) }
func (h *OrderHandler) Cancel(c *gin.Context)  { h.transition(h.orders.Cancel)(c) }
