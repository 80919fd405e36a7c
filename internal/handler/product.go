package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

type Catalog interface {
	List(ctx context.Context, page int) ([]model.Product, error)
	Search(ctx context.Context, q string) ([]model.Product, error)
	NewArrivals(ctx context.Context) ([]model.Product, error)
	ByCategory(ctx context.Context, category string) ([]model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)

	ListAll(ctx context.Context) ([]model.Product, error)
	GetUncached(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, in service.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id string, patch service.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductHandler struct {
	catalog Catalog
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) respondList(c *gin.Context, products []model.Product, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductList(products))
}

func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	products, err := h.catalog.List(c.Request.Context(), q.Page)
	h.respondList(c, products, err)
}

func (h *ProductHandler) Search(c *gin.Context) {
	var q dto.SearchProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	products, err := h.catalog.Search(c.Request.Context(), q.Q)
	h.respondList(c, products, err)
}

func (h *ProductHandler) NewArrivals(c *gin.Context) {
	products, err := h.catalog.NewArrivals(c.Request.Context())
	h.respondList(c, products, err)
}

func (h *ProductHandler) ByCategory(c *gin.Context) {
	products, err := h.catalog.ByCategory(c.Request.Context(), c.Param("category"))
	h.respondList(c, products, err)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// Admin endpoints read through to the store, never the cache.

func (h *ProductHandler) AdminList(c *gin.Context) {
	products, err := h.catalog.ListAll(c.Request.Context())
	h.respondList(c, products, err)
}

func (h *ProductHandler) AdminGet(c *gin.Context) {
	product, err := h.catalog.GetUncached(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), service.ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		CountInStock: req.CountInStock,
		Category:     model.Category(req.Category),
		Images:       req.Images,
		IsNewArrival: req.IsNewArrival,
		IsFeatured:   req.IsFeatured,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	patch := service.ProductPatch{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		CountInStock:   req.CountInStock,
		IsNewArrival:   req.IsNewArrival,
		IsFeatured:     req.IsFeatured,
		AddImages:      req.Images,
		ImagesToRemove: req.ImagesToRemove,
	}
	if req.Category != nil {
		category := model.Category(*req.Category)
		patch.Category = &category
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "product removed"})
}
