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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error
	SaveAddresses(ctx context.Context, id primitive.ObjectID, version int, addresses []model.Address) (bool, error)
}

type mongoUserRepo struct{ col *mongo.Collection }

func NewUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepo{col: db.Collection(usersCollection)}
}

func (r *mongoUserRepo) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Addresses == nil {
		user.Addresses = []model.Address{}
	}

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", duplicateKey(err))
	}
	return nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user model.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepo) List(ctx context.Context) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *mongoUserRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *mongoUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user.UpdatedAt = time.Now().UTC()
	_, err := r.col.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"name":      user.Name,
		"email":     user.Email,
		"password":  user.Password,
		"updatedAt": user.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update user: %w", duplicateKey(err))
	}
	return nil
}

func (r *mongoUserRepo) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"isBlocked": blocked,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set blocked: %w", err)
	}
	return nil
}

// SaveAddresses replaces the whole address book, so default-flag clearing
// lands in the same single-document write as the change that caused it.
// The write only applies if the stored addressVersion still equals version;
// it reports false when another writer got there first.
func (r *mongoUserRepo) SaveAddresses(ctx context.Context, id primitive.ObjectID, version int, addresses []model.Address) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "addressVersion": version}
	if version == 0 {
		// Users created before the field existed have none.
		filter["addressVersion"] = bson.M{"$in": bson.A{0, nil}}
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"addresses": addresses, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"addressVersion": 1},
	})
	if err != nil {
		return false, fmt.Errorf("save addresses: %w", err)
	}
	return res.MatchedCount > 0, nil
}
