package service

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/model"
)

type mockCartRepo struct {
	carts map[primitive.ObjectID]*model.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[primitive.ObjectID]*model.Cart)}
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	cart, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *cart
	cp.Items = append([]model.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (m *mockCartRepo) Save(_ context.Context, cart *model.Cart) error {
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]model.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = &cp
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID primitive.ObjectID) error {
	if cart, ok := m.carts[userID]; ok {
		cart.Items = []model.CartItem{}
	}
	return nil
}

func TestCartService_AddItem(t *testing.T) {
	products := newMockProductRepo()
	p := products.add("shirt", "100", 10)
	carts := newMockCartRepo()
	svc := NewCartService(carts, products, testEngine())
	caller := customer()

	_, err := svc.AddItem(context.Background(), caller, p.ID.Hex(), 1)
	require.NoError(t, err)
	view, err := svc.AddItem(context.Background(), caller, p.ID.Hex(), 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.True(t, view.Quote.TotalPrice.Equal(decimal.NewFromInt(286)))
	assert.Len(t, carts.carts[caller.ID].Items, 1)
}

func TestCartService_AddItem_Errors(t *testing.T) {
	products := newMockProductRepo()
	p := products.add("shirt", "100", 2)
	svc := NewCartService(newMockCartRepo(), products, testEngine())
	caller := customer()

	_, err := svc.AddItem(context.Background(), caller, "bad", 1)
	assert.ErrorIs(t, err, ErrInvalidProductID)

	_, err = svc.AddItem(context.Background(), caller, primitive.NewObjectID().Hex(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.AddItem(context.Background(), caller, p.ID.Hex(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(context.Background(), caller, p.ID.Hex(), 3)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCartService_AddItem_HugeQuantityOnExistingLine(t *testing.T) {
	products := newMockProductRepo()
	p := products.add("shirt", "100", 10)
	carts := newMockCartRepo()
	svc := NewCartService(carts, products, testEngine())
	caller := customer()

	_, err := svc.AddItem(context.Background(), caller, p.ID.Hex(), 2)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), caller, p.ID.Hex(), math.MaxInt)
	assert.ErrorIs(t, err, ErrConflict)
	require.Len(t, carts.carts[caller.ID].Items, 1)
	assert.Equal(t, 2, carts.carts[caller.ID].Items[0].Quantity)
}

func TestCartService_UpdateAndDeleteItem(t *testing.T) {
	products := newMockProductRepo()
	p := products.add("shirt", "100", 10)
	other := products.add("cap", "5", 10)
	carts := newMockCartRepo()
	svc := NewCartService(carts, products, testEngine())
	caller := customer()

	_, err := svc.UpdateItem(context.Background(), caller, p.ID.Hex(), 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = svc.AddItem(context.Background(), caller, p.ID.Hex(), 1)
	require.NoError(t, err)
	view, err := svc.UpdateItem(context.Background(), caller, p.ID.Hex(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Lines[0].Quantity)

	assert.ErrorIs(t, svc.DeleteItem(context.Background(), caller, other.ID.Hex()), ErrCartItemNotFound)
	require.NoError(t, svc.DeleteItem(context.Background(), caller, p.ID.Hex()))
	assert.Empty(t, carts.carts[caller.ID].Items)
}

func TestCartService_GetCart_SkipsRemovedProducts(t *testing.T) {
	products := newMockProductRepo()
	p := products.add("shirt", "600", 10)
	carts := newMockCartRepo()
	caller := customer()
	carts.carts[caller.ID] = &model.Cart{UserID: caller.ID, Items: []model.CartItem{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: primitive.NewObjectID(), Quantity: 1},
	}}
	svc := NewCartService(carts, products, testEngine())

	view, err := svc.GetCart(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Quote.ItemsPrice.Equal(decimal.NewFromInt(1200)))
	assert.True(t, view.Quote.ShippingPrice.IsZero())
}

func TestCartService_GetCart_Empty(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockProductRepo(), testEngine())

	view, err := svc.GetCart(context.Background(), customer())
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Quote.TotalPrice.Equal(decimal.NewFromInt(50)))
}
