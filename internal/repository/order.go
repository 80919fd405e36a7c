package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/flicky/storefront-api/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, prev, next model.OrderStatus) (bool, error)
	StatsByUser(ctx context.Context) (map[primitive.ObjectID]model.UserOrderStats, error)
	Count(ctx context.Context) (int64, error)
	CountPending(ctx context.Context) (int64, error)
	DeliveredRevenue(ctx context.Context) (decimal.Decimal, error)
}

type mongoOrderRepo struct{ col *mongo.Collection }

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepo{col: db.Collection(ordersCollection)}
}

func (r *mongoOrderRepo) Create(ctx context.Context, order *model.Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now

	owner := order.Owner
	order.Owner = nil
	_, err := r.col.InsertOne(ctx, order)
	order.Owner = owner
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// withOwner joins the owning user's id, name and email into "owner".
func withOwner(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$owner"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "owner.password", Value: 0},
			{Key: "owner.addresses", Value: 0},
		}}},
	}
}

func (r *mongoOrderRepo) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []model.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *mongoOrderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	orders, err := r.aggregate(ctx, withOwner(bson.D{{Key: "_id", Value: id}}))
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (r *mongoOrderRepo) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]model.Order, error) {
	orders, err := r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user", Value: userID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := r.aggregate(ctx, withOwner(bson.D{}))
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus writes next only if the stored flags still equal prev.
func (r *mongoOrderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, prev, next model.OrderStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"_id":         id,
		"isPaid":      prev.IsPaid,
		"isShipped":   prev.IsShipped,
		"isDelivered": prev.IsDelivered,
		"isCancelled": prev.IsCancelled,
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"isPaid":      next.IsPaid,
		"paidAt":      next.PaidAt,
		"isShipped":   next.IsShipped,
		"shippedAt":   next.ShippedAt,
		"isDelivered": next.IsDelivered,
		"deliveredAt": next.DeliveredAt,
		"isCancelled": next.IsCancelled,
		"cancelledAt": next.CancelledAt,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoOrderRepo) StatsByUser(ctx context.Context) (map[primitive.ObjectID]model.UserOrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "spent", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate user stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		UserID primitive.ObjectID `bson:"_id"`
		Count  int                `bson:"count"`
		Spent  decimal.Decimal    `bson:"spent"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode user stats: %w", err)
	}

	stats := make(map[primitive.ObjectID]model.UserOrderStats, len(rows))
	for _, row := range rows {
		stats[row.UserID] = model.UserOrderStats{OrdersCount: row.Count, TotalSpent: row.Spent}
	}
	return stats, nil
}

func (r *mongoOrderRepo) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoOrderRepo) CountPending(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{"isDelivered": false, "isCancelled": false})
}

func (r *mongoOrderRepo) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *mongoOrderRepo) DeliveredRevenue(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "isDelivered", Value: true}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total decimal.Decimal `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return decimal.Zero, fmt.Errorf("decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return rows[0].Total, nil
}
