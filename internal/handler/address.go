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

type AddressBook interface {
	List(ctx context.Context, caller *model.User) ([]model.Address, error)
	Get(ctx context.Context, caller *model.User, id string) (*model.Address, error)
	Add(ctx context.Context, caller *model.User, in service.AddressInput) ([]model.Address, error)
	Update(ctx context.Context, caller *model.User, id string, in service.AddressInput) (*model.Address, error)
	Delete(ctx context.Context, caller *model.User, id string) error
}

type AddressHandler struct {
	addresses AddressBook
}

func NewAddressHandler(addresses AddressBook) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

func toAddressInput(req dto.AddressRequest) service.AddressInput {
	return service.AddressInput{
		Label:        req.Label,
		FullName:     req.FullName,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
	}
}

func (h *AddressHandler) List(c *gin.Context) {
	addresses, err := h.addresses.List(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressList(addresses))
}

func (h *AddressHandler) Get(c *gin.Context) {
	address, err := h.addresses.Get(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressResponse(address))
}

// Add responds with the whole address book.
func (h *AddressHandler) Add(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	addresses, err := h.addresses.Add(c.Request.Context(), middleware.GetUser(c), toAddressInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAddressList(addresses))
}

func (h *AddressHandler) Update(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	address, err := h.addresses.Update(c.Request.Context(), middleware.GetUser(c), c.Param("id"), toAddressInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressResponse(address))
}

func (h *AddressHandler) Delete(c *gin.Context) {
	if err := h.addresses.Delete(c.Request.Context(), middleware.GetUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "address removed"})
}
