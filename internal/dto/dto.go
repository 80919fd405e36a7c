// Package dto holds the JSON request and response contracts of the HTTP API.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type MessageResponse struct {
	Message string `json:"message"`
}

// --- Auth & profile ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

type UserResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	IsBlocked bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// --- Addresses ---

type AddressRequest struct {
	Label        *string `json:"label"`
	FullName     *string `json:"fullName"`
	Phone        *string `json:"phone" binding:"omitempty,mobile_in"`
	AddressLine1 *string `json:"addressLine1"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postalCode" binding:"omitempty,pincode"`
	Country      *string `json:"country"`
	IsDefault    *bool   `json:"isDefault"`
}

type AddressResponse struct {
	ID           string    `json:"_id"`
	Label        string    `json:"label"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	AddressLine1 string    `json:"addressLine1"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// --- Products ---

type ProductResponse struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	Images       []string        `json:"images"`
	CountInStock int             `json:"countInStock"`
	Keywords     []string        `json:"keywords"`
	IsNewArrival bool            `json:"isNewArrival"`
	IsFeatured   bool            `json:"isFeatured"`
	Rating       float64         `json:"rating"`
	NumReviews   int             `json:"numReviews"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type ListProductsQuery struct {
	Page int `form:"page,default=1" binding:"min=1"`
}

type SearchProductsQuery struct {
	Q string `form:"q"`
}

type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock" binding:"min=0"`
	Category     string          `json:"category" binding:"required"`
	Images       []string        `json:"images"`
	IsNewArrival bool            `json:"isNewArrival"`
	IsFeatured   bool            `json:"isFeatured"`
}

type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	CountInStock   *int             `json:"countInStock" binding:"omitempty,min=0"`
	Category       *string          `json:"category"`
	IsNewArrival   *bool            `json:"isNewArrival"`
	IsFeatured     *bool            `json:"isFeatured"`
	Images         []string         `json:"images"`
	ImagesToRemove []string         `json:"imagesToRemove"`
}

// --- Cart ---

type AddCartItemRequest struct {
	Product string `json:"product" binding:"required"`
	Qty     int    `json:"qty" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

type CartItemResponse struct {
	Product ProductResponse `json:"product"`
	Qty     int             `json:"qty"`
}

type CartResponse struct {
	Items         []CartItemResponse `json:"items"`
	ItemsPrice    decimal.Decimal    `json:"itemsPrice"`
	TaxPrice      decimal.Decimal    `json:"taxPrice"`
	ShippingPrice decimal.Decimal    `json:"shippingPrice"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
}

// --- Orders ---

type OrderItemRequest struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
}

type ShippingAddressRequest struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// PlaceOrderRequest carries no prices; any the client sends are ignored.
type PlaceOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type OrderItemResponse struct {
	Product string          `json:"product"`
	Name    string          `json:"name"`
	Image   string          `json:"image"`
	Price   decimal.Decimal `json:"price"`
	Qty     int             `json:"qty"`
}

type ShippingAddressResponse struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

type OwnerResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderResponse struct {
	ID              string                  `json:"_id"`
	User            string                  `json:"user"`
	Owner           *OwnerResponse          `json:"owner,omitempty"`
	OrderItems      []OrderItemResponse     `json:"orderItems"`
	ShippingAddress ShippingAddressResponse `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal         `json:"itemsPrice"`
	TaxPrice        decimal.Decimal         `json:"taxPrice"`
	ShippingPrice   decimal.Decimal         `json:"shippingPrice"`
	TotalPrice      decimal.Decimal         `json:"totalPrice"`
	IsPaid          bool                    `json:"isPaid"`
	PaidAt          *time.Time              `json:"paidAt,omitempty"`
	IsShipped       bool                    `json:"isShipped"`
	ShippedAt       *time.Time              `json:"shippedAt,omitempty"`
	IsDelivered     bool                    `json:"isDelivered"`
	DeliveredAt     *time.Time              `json:"deliveredAt,omitempty"`
	IsCancelled     bool                    `json:"isCancelled"`
	CancelledAt     *time.Time              `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// --- Admin ---

type UserSummaryResponse struct {
	UserResponse
	OrdersCount int             `json:"ordersCount"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
}

type UserDetailResponse struct {
	User   UserResponse    `json:"user"`
	Orders []OrderResponse `json:"orders"`
}

type BlockResponse struct {
	Message   string `json:"message"`
	IsBlocked bool   `json:"isBlocked"`
}

type StatsResponse struct {
	Users         int64           `json:"users"`
	Orders        int64           `json:"orders"`
	PendingOrders int64           `json:"pendingOrders"`
	Revenue       decimal.Decimal `json:"revenue"`
}
