package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/pricing"
	"github.com/flicky/storefront-api/internal/repository"
)

// CartLine is a cart entry resolved against the current catalog.
type CartLine struct {
	Product  model.Product
	Quantity int
}

// CartView is the caller's cart priced at current catalog prices. Lines whose
// product was removed from the catalog are left out.
type CartView struct {
	Lines []CartLine
	Quote pricing.Quote
}

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	pricing  *pricing.Engine
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, engine *pricing.Engine) *CartService {
	return &CartService{carts: carts, products: products, pricing: engine}
}

func (s *CartService) load(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		cart = &model.Cart{UserID: userID, Items: []model.CartItem{}}
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, caller *model.User) (*CartView, error) {
	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Lines: make([]CartLine, 0, len(cart.Items))}
	priced := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			continue
		}
		view.Lines = append(view.Lines, CartLine{Product: *product, Quantity: item.Quantity})
		priced = append(priced, pricing.Line{UnitPrice: product.Price, Quantity: item.Quantity})
	}
	view.Quote = s.pricing.Quote(priced)
	return view, nil
}

func (s *CartService) product(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidProductID
	}
	product, err := s.products.GetByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// AddItem puts quantity units of the product in the cart, on top of any
// already there.
func (s *CartService) AddItem(ctx context.Context, caller *model.User, productID string, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	i := indexOf(cart.Items, product.ID)
	if i < 0 {
		cart.Items = append(cart.Items, model.CartItem{ProductID: product.ID})
		i = len(cart.Items) - 1
	}
	if quantity > product.CountInStock-cart.Items[i].Quantity {
		return nil, outOfStock(product.Name)
	}
	cart.Items[i].Quantity += quantity

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return s.GetCart(ctx, caller)
}

func (s *CartService) UpdateItem(ctx context.Context, caller *model.User, productID string, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	i := indexOf(cart.Items, product.ID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	if quantity > product.CountInStock {
		return nil, outOfStock(product.Name)
	}
	cart.Items[i].Quantity = quantity

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return s.GetCart(ctx, caller)
}

func (s *CartService) DeleteItem(ctx context.Context, caller *model.User, productID string) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return ErrInvalidProductID
	}
	cart, err := s.load(ctx, caller.ID)
	if err != nil {
		return err
	}

	i := indexOf(cart.Items, oid)
	if i < 0 {
		return ErrCartItemNotFound
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	if err := s.carts.Save(ctx, cart); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func indexOf(items []model.CartItem, productID primitive.ObjectID) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
