package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flicky/storefront-api/internal/model"
)

// ProductQuery filters catalog listings. Zero values mean "no constraint";
// every word in Words must match the name or the description.
type ProductQuery struct {
	Category    model.Category
	Words       []string
	NewArrivals bool
	Skip        int64
	Limit       int64
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	List(ctx context.Context, q ProductQuery) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product, setStock bool) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
}

type mongoProductRepo struct{ col *mongo.Collection }

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepo{col: db.Collection(productsCollection)}
}

func (r *mongoProductRepo) Create(ctx context.Context, product *model.Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", duplicateKey(err))
	}
	return nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p model.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *mongoProductRepo) List(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := r.col.Find(ctx, productFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []model.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func productFilter(q ProductQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(string(q.Category)) + "$", Options: "i"}
	}
	if q.NewArrivals {
		filter["isNewArrival"] = true
	}
	if len(q.Words) > 0 {
		and := make(bson.A, 0, len(q.Words))
		for _, w := range q.Words {
			re := primitive.Regex{Pattern: regexp.QuoteMeta(w), Options: "i"}
			and = append(and, bson.M{"$or": bson.A{
				bson.M{"name": re},
				bson.M{"description": re},
			}})
		}
		filter["$and"] = and
	}
	return filter
}

// Update writes the editable fields of product. countInStock is only written
// when setStock is true so that concurrent order decrements are not undone.
// It reports false when no product has the id.
func (r *mongoProductRepo) Update(ctx context.Context, product *model.Product, setStock bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":         product.Name,
		"slug":         product.Slug,
		"description":  product.Description,
		"price":        product.Price,
		"category":     product.Category,
		"images":       product.Images,
		"keywords":     product.Keywords,
		"isNewArrival": product.IsNewArrival,
		"isFeatured":   product.IsFeatured,
		"updatedAt":    product.UpdatedAt,
	}
	if setStock {
		set["countInStock"] = product.CountInStock
	}
	res, err := r.col.UpdateByID(ctx, product.ID, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update product: %w", duplicateKey(err))
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoProductRepo) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// DecrementStock removes quantity units only while enough stock remains.
// It reports false when the product is gone or short.
func (r *mongoProductRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "countInStock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"countInStock": -quantity},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoProductRepo) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"countInStock": quantity},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}
