package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryMen         Category = "men"
	CategoryWomen       Category = "women"
	CategoryElectronics Category = "electronics"
	CategoryShoes       Category = "shoes"
	CategoryKids        Category = "kids"
)

var Categories = []Category{CategoryMen, CategoryWomen, CategoryElectronics, CategoryShoes, CategoryKids}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Slug         string             `bson:"slug"`
	Description  string             `bson:"description,omitempty"`
	Price        decimal.Decimal    `bson:"price"`
	Category     Category           `bson:"category"`
	Images       []string           `bson:"images"`
	CountInStock int                `bson:"countInStock"`
	Keywords     []string           `bson:"keywords"`
	IsNewArrival bool               `bson:"isNewArrival"`
	IsFeatured   bool               `bson:"isFeatured"`
	Rating       float64            `bson:"rating"`
	NumReviews   int                `bson:"numReviews"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// PrimaryImage is the image copied into order snapshots.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	IsAdmin        bool               `bson:"isAdmin"`
	IsBlocked      bool               `bson:"isBlocked"`
	Addresses      []Address          `bson:"addresses"`
	AddressVersion int                `bson:"addressVersion"` // bumped on every address book write
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

type Address struct {
	ID           primitive.ObjectID `bson:"_id"`
	Label        string             `bson:"label"`
	FullName     string             `bson:"fullName"`
	Phone        string             `bson:"phone"`
	AddressLine1 string             `bson:"addressLine1"`
	City         string             `bson:"city"`
	State        string             `bson:"state,omitempty"`
	PostalCode   string             `bson:"postalCode"`
	Country      string             `bson:"country"`
	IsDefault    bool               `bson:"isDefault"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "COD"
	PaymentStripe   PaymentMethod = "Stripe"
	PaymentRazorpay PaymentMethod = "Razorpay"
	PaymentPayPal   PaymentMethod = "PayPal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentStripe, PaymentRazorpay, PaymentPayPal:
		return true
	}
	return false
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	UserID          primitive.ObjectID `bson:"user"`
	Owner           *OrderOwner        `bson:"owner,omitempty"`
	Items           []OrderItem        `bson:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod"`
	ItemsPrice      decimal.Decimal    `bson:"itemsPrice"`
	TaxPrice        decimal.Decimal    `bson:"taxPrice"`
	ShippingPrice   decimal.Decimal    `bson:"shippingPrice"`
	TotalPrice      decimal.Decimal    `bson:"totalPrice"`
	OrderStatus     `bson:",inline"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

// OrderStatus holds the four independent status flags of an order.
type OrderStatus struct {
	IsPaid      bool       `bson:"isPaid"`
	PaidAt      *time.Time `bson:"paidAt,omitempty"`
	IsShipped   bool       `bson:"isShipped"`
	ShippedAt   *time.Time `bson:"shippedAt,omitempty"`
	IsDelivered bool       `bson:"isDelivered"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty"`
	IsCancelled bool       `bson:"isCancelled"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty"`
}

// OrderOwner is joined in from the users collection on read; it is never written.
type OrderOwner struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product"`
	Name      string             `bson:"name"`
	Image     string             `bson:"image"`
	Price     decimal.Decimal    `bson:"price"`
	Quantity  int                `bson:"qty"`
}

type ShippingAddress struct {
	FullName     string `bson:"fullName"`
	Phone        string `bson:"phone"`
	AddressLine1 string `bson:"addressLine1"`
	City         string `bson:"city"`
	State        string `bson:"state"`
	PostalCode   string `bson:"postalCode"`
	Country      string `bson:"country"`
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user"`
	Items     []CartItem         `bson:"items"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"product"`
	Quantity  int                `bson:"qty"`
}

// UserOrderStats aggregates a user's order history for the admin console.
type UserOrderStats struct {
	OrdersCount int
	TotalSpent  decimal.Decimal
}

type AdminStats struct {
	Users         int64
	Orders        int64
	PendingOrders int64
	Revenue       decimal.Decimal
}

// StockAdjustment is the message body of a deferred stock decrement.
type StockAdjustment struct {
	OrderID   primitive.ObjectID `json:"order_id"`
	ProductID primitive.ObjectID `json:"product_id"`
	Quantity  int                `json:"quantity"`
}
