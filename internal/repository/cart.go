package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flicky/storefront-api/internal/model"
)

type CartRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error)
	Save(ctx context.Context, cart *model.Cart) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type mongoCartRepo struct{ col *mongo.Collection }

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepo{col: db.Collection(cartsCollection)}
}

func (r *mongoCartRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*model.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var cart model.Cart
	if err := r.col.FindOne(ctx, bson.M{"user": userID}).Decode(&cart); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &cart, nil
}

// Save upserts the cart keyed by its owner.
func (r *mongoCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cart.UpdatedAt = time.Now().UTC()
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}

	var saved model.Cart
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"user": cart.UserID},
		bson.M{"$set": bson.M{"items": cart.Items, "updatedAt": cart.UpdatedAt}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	cart.ID = saved.ID
	return nil
}

func (r *mongoCartRepo) Clear(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{"$set": bson.M{"items": bson.A{}, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
