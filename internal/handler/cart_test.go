package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/pricing"
	"github.com/flicky/storefront-api/internal/service"
)

type fakeCarts struct {
	product  model.Product
	qty      map[string]int
	lastCall string
}

func (f *fakeCarts) view() *service.CartView {
	v := &service.CartView{Quote: pricing.Quote{ShippingPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(50)}}
	if q := f.qty[f.product.ID.Hex()]; q > 0 {
		v.Lines = []service.CartLine{{Product: f.product, Quantity: q}}
	}
	return v
}

func (f *fakeCarts) GetCart(_ context.Context, _ *model.User) (*service.CartView, error) {
	f.lastCall = "get"
	return f.view(), nil
}

func (f *fakeCarts) AddItem(_ context.Context, _ *model.User, productID string, quantity int) (*service.CartView, error) {
	f.lastCall = "add"
	if productID != f.product.ID.Hex() {
		return nil, service.ErrProductNotFound
	}
	f.qty[productID] += quantity
	return f.view(), nil
}

func (f *fakeCarts) UpdateItem(_ context.Context, _ *model.User, productID string, quantity int) (*service.CartView, error) {
	f.lastCall = "update"
	if _, ok := f.qty[productID]; !ok {
		return nil, service.ErrCartItemNotFound
	}
	f.qty[productID] = quantity
	return f.view(), nil
}

func (f *fakeCarts) DeleteItem(_ context.Context, _ *model.User, productID string) error {
	f.lastCall = "delete"
	delete(f.qty, productID)
	return nil
}

func TestCartHandler(t *testing.T) {
	carts := &fakeCarts{
		product: model.Product{ID: primitive.NewObjectID(), Name: "Shirt", Price: decimal.NewFromInt(100)},
		qty:     map[string]int{},
	}
	r := newTestRouter(Services{Carts: carts})
	id := carts.product.ID.Hex()

	w := do(t, r, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/cart", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{}, body["items"])
	assert.Equal(t, float64(50), body["totalPrice"])

	w = do(t, r, http.MethodPost, "/api/cart/items", userToken, map[string]any{"product": id, "qty": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, carts.qty)

	w = do(t, r, http.MethodPost, "/api/cart/items", userToken, map[string]any{"product": id, "qty": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), items[0].(map[string]any)["qty"])

	w = do(t, r, http.MethodPut, "/api/cart/items/"+id, userToken, map[string]any{"qty": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, carts.qty[id])

	w = do(t, r, http.MethodPut, "/api/cart/items/"+primitive.NewObjectID().Hex(), userToken, map[string]any{"qty": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "cart item not found", decode(t, w)["message"])

	w = do(t, r, http.MethodDelete, "/api/cart/items/"+id, userToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "delete", carts.lastCall)
}
