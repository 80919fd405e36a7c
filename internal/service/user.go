package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

type ProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UserSummary is a user row of the admin console.
type UserSummary struct {
	User  model.User
	Stats model.UserOrderStats
}

type UserService struct {
	users  repository.UserRepository
	orders repository.OrderRepository
}

func NewUserService(users repository.UserRepository, orders repository.OrderRepository) *UserService {
	return &UserService{users: users, orders: orders}
}

func (s *UserService) get(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller *model.User, in ProfileInput) (*model.User, error) {
	user, err := s.get(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return nil, validationError("name must be at least 2 characters")
		}
		user.Name = name
	}
	if in.Email != nil {
		user.Email = normalizeEmail(*in.Email)
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return nil, validationError("password must be at least 6 characters")
		}
		if user.Password, err = hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	user.Password = ""
	return user, nil
}

// ListUsers returns every account with its order count and lifetime spend.
func (s *UserService) ListUsers(ctx context.Context, caller *model.User) ([]UserSummary, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	stats, err := s.orders.StatsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("user order stats: %w", err)
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{User: u, Stats: stats[u.ID]})
	}
	return out, nil
}

func (s *UserService) GetUserDetail(ctx context.Context, caller *model.User, id string) (*model.User, []model.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, ErrInvalidID
	}
	user, err := s.get(ctx, oid)
	if err != nil {
		return nil, nil, err
	}
	user.Password = ""

	orders, err := s.orders.ListByUserID(ctx, oid)
	if err != nil {
		return nil, nil, fmt.Errorf("list user orders: %w", err)
	}
	return user, orders, nil
}

// ToggleBlock flips the blocked flag of another account.
func (s *UserService) ToggleBlock(ctx context.Context, caller *model.User, id string) (*model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	if oid == caller.ID {
		return nil, ErrBlockSelf
	}

	user, err := s.get(ctx, oid)
	if err != nil {
		return nil, err
	}
	user.IsBlocked = !user.IsBlocked
	if err := s.users.SetBlocked(ctx, oid, user.IsBlocked); err != nil {
		return nil, fmt.Errorf("toggle block: %w", err)
	}

	logging.FromContext(ctx).Info("user block toggled",
		"user_id", oid.Hex(), "blocked", user.IsBlocked, "by", caller.ID.Hex())
	user.Password = ""
	return user, nil
}
