package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/metrics"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/pricing"
	"github.com/flicky/storefront-api/internal/repository"
)

// Cache is the read-through cache the catalog and order services share.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// StockPublisher defers stock decrements that could not be applied inline.
type StockPublisher interface {
	PublishStockAdjustments(ctx context.Context, adjustments []model.StockAdjustment) error
}

type OrderLine struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	Items           []OrderLine
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
}

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	carts     repository.CartRepository
	pricing   *pricing.Engine
	cache     Cache
	publisher StockPublisher
	now       func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	engine *pricing.Engine,
	cache Cache,
	publisher StockPublisher,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		pricing:   engine,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

type mergedLine struct {
	productID primitive.ObjectID
	quantity  int
}

// mergeLines validates the requested lines and folds repeated products into
// one line, keeping first-seen order.
func mergeLines(lines []OrderLine) ([]mergedLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	merged := make([]mergedLine, 0, len(lines))
	index := make(map[primitive.ObjectID]int, len(lines))
	for _, l := range lines {
		id, err := primitive.ObjectIDFromHex(l.ProductID)
		if err != nil {
			return nil, ErrInvalidProductID
		}
		if l.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[id]; ok {
			if merged[i].quantity > math.MaxInt-l.Quantity {
				return nil, ErrInvalidQuantity
			}
			merged[i].quantity += l.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, mergedLine{productID: id, quantity: l.Quantity})
	}
	return merged, nil
}

func validateShippingAddress(a model.ShippingAddress) error {
	required := []struct{ field, value string }{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return validationError("shipping address " + r.field + " is required")
		}
	}
	return nil
}

// PlaceOrder prices the requested lines from the catalog, persists the order
// and then takes the stock. Nothing is written when a product is missing or
// short at check time.
func (s *OrderService) PlaceOrder(ctx context.Context, caller *model.User, in PlaceOrderInput) (*model.Order, error) {
	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}
	if err := validateShippingAddress(in.ShippingAddress); err != nil {
		return nil, err
	}
	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentCOD
	}
	if !method.Valid() {
		return nil, ErrInvalidPayment
	}

	items := make([]model.OrderItem, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		product, err := s.products.GetByID(ctx, l.productID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		if product.CountInStock < l.quantity {
			return nil, outOfStock(product.Name)
		}
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.PrimaryImage(),
			Price:     product.Price,
			Quantity:  l.quantity,
		})
		priced = append(priced, pricing.Line{UnitPrice: product.Price, Quantity: l.quantity})
	}

	quote := s.pricing.Quote(priced)
	order := &model.Order{
		UserID:          caller.ID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   method,
		ItemsPrice:      quote.ItemsPrice,
		TaxPrice:        quote.TaxPrice,
		ShippingPrice:   quote.ShippingPrice,
		TotalPrice:      quote.TotalPrice,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.takeStock(ctx, order); err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	s.invalidateProducts(ctx, order.Items)
	if s.carts != nil {
		if err := s.carts.Clear(ctx, caller.ID); err != nil {
			logging.FromContext(ctx).Warn("clear cart after order", "error", err, "user_id", caller.ID.Hex())
		}
	}

	logging.FromContext(ctx).Info("order placed",
		"order_id", order.ID.Hex(), "user_id", caller.ID.Hex(), "total", order.TotalPrice.String())
	return order, nil
}

// takeStock decrements stock line by line. A line that lost a race for the
// last units cancels the order and returns what was already taken; a store
// failure hands the remaining lines to the reconciliation queue.
func (s *OrderService) takeStock(ctx context.Context, order *model.Order) error {
	log := logging.FromContext(ctx).With("order_id", order.ID.Hex())

	for i, item := range order.Items {
		ok, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			log.Error("decrement stock", "error", err, "product_id", item.ProductID.Hex())
			return s.deferStock(ctx, order, i)
		}
		if !ok {
			s.releaseStock(ctx, order, order.Items[:i])
			return outOfStock(item.Name)
		}
	}
	return nil
}

func (s *OrderService) deferStock(ctx context.Context, order *model.Order, from int) error {
	pending := make([]model.StockAdjustment, 0, len(order.Items)-from)
	for _, item := range order.Items[from:] {
		pending = append(pending, model.StockAdjustment{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if s.publisher == nil {
		s.releaseStock(ctx, order, order.Items[:from])
		return fmt.Errorf("take stock for order %s: no reconciliation queue", order.ID.Hex())
	}
	if err := s.publisher.PublishStockAdjustments(ctx, pending); err != nil {
		s.releaseStock(ctx, order, order.Items[:from])
		return fmt.Errorf("defer stock adjustments: %w", err)
	}

	metrics.StockReconcile.WithLabelValues("enqueued").Add(float64(len(pending)))
	logging.FromContext(ctx).Warn("stock adjustments deferred",
		"order_id", order.ID.Hex(), "lines", len(pending))
	return nil
}

// releaseStock gives back the units already taken for order and cancels it.
func (s *OrderService) releaseStock(ctx context.Context, order *model.Order, taken []model.OrderItem) {
	log := logging.FromContext(ctx).With("order_id", order.ID.Hex())

	for _, item := range taken {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Error("restore stock", "error", err, "product_id", item.ProductID.Hex(), "qty", item.Quantity)
		}
	}

	next, err := TransitionCancel.apply(order.OrderStatus, s.now().UTC())
	if err != nil {
		return
	}
	ok, err := s.orders.UpdateStatus(ctx, order.ID, order.OrderStatus, next)
	if err != nil || !ok {
		log.Error("cancel unfulfilled order", "error", err, "matched", ok)
		return
	}
	order.OrderStatus = next
}

func (s *OrderService) invalidateProducts(ctx context.Context, items []model.OrderItem) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, cache.ProductKey(item.ProductID.Hex()))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("invalidate product cache", "error", err)
	}
}

func (s *OrderService) load(ctx context.Context, id string) (*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	order, err := s.orders.GetByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func canAccess(caller *model.User, order *model.Order) error {
	if caller.IsAdmin || order.UserID == caller.ID {
		return nil
	}
	return ErrNotOrderOwner
}

func requireAdmin(caller *model.User) error {
	if caller == nil || !caller.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

// GetOrder returns the order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, caller *model.User, id string) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAccess(caller, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, caller *model.User) ([]model.Order, error) {
	orders, err := s.orders.ListByUserID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list my orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, caller *model.User) ([]model.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) Ship(ctx context.Context, caller *model.User, id string) (*model.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, TransitionShip)
}

func (s *OrderService) Deliver(ctx context.Context, caller *model.User, id string) (*model.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, TransitionDeliver)
}

// Cancel is open to the order's owner and to admins.
func (s *OrderService) Cancel(ctx context.Context, caller *model.User, id string) (*model.Order, error) {
	return s.transition(ctx, caller, id, TransitionCancel)
}

func (s *OrderService) transition(ctx context.Context, caller *model.User, id string, t Transition) (*model.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAccess(caller, order); err != nil {
		return nil, err
	}

	next, err := t.apply(order.OrderStatus, s.now().UTC())
	if err != nil {
		return nil, err
	}
	ok, err := s.orders.UpdateStatus(ctx, order.ID, order.OrderStatus, next)
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", t, err)
	}
	if !ok {
		return nil, ErrConcurrentOrderEdit
	}

	order.OrderStatus = next
	metrics.OrderTransitions.WithLabelValues(string(t)).Inc()
	logging.FromContext(ctx).Info("order status changed",
		"order_id", order.ID.Hex(), "transition", string(t), "by", caller.ID.Hex())
	return order, nil
}
