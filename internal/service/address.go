package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const defaultAddressLabel = "Home"

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// ValidPhone reports whether phone is a ten digit Indian mobile number.
func ValidPhone(phone string) bool { return phonePattern.MatchString(phone) }

func ValidPincode(code string) bool { return pincodePattern.MatchString(code) }

type AddressInput struct {
	Label        *string
	FullName     *string
	Phone        *string
	AddressLine1 *string
	City         *string
	State        *string
	PostalCode   *string
	Country      *string
	IsDefault    *bool
}

type AddressService struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewAddressService(users repository.UserRepository) *AddressService {
	return &AddressService{users: users, now: time.Now}
}

// addressWriteAttempts bounds the retries when concurrent requests keep
// writing the same address book.
const addressWriteAttempts = 3

func (s *AddressService) owner(ctx context.Context, caller *model.User) (*model.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Addresses == nil {
		user.Addresses = []model.Address{}
	}
	return user, nil
}

func (s *AddressService) book(ctx context.Context, caller *model.User) ([]model.Address, error) {
	user, err := s.owner(ctx, caller)
	if err != nil {
		return nil, err
	}
	return user.Addresses, nil
}

// edit applies change to a fresh copy of the address book and writes it back
// only if nobody else wrote the book in between, reloading and retrying
// otherwise.
func (s *AddressService) edit(ctx context.Context, caller *model.User, change func([]model.Address) ([]model.Address, error)) ([]model.Address, error) {
	for attempt := 0; attempt < addressWriteAttempts; attempt++ {
		user, err := s.owner(ctx, caller)
		if err != nil {
			return nil, err
		}
		addresses, err := change(user.Addresses)
		if err != nil {
			return nil, err
		}
		saved, err := s.users.SaveAddresses(ctx, caller.ID, user.AddressVersion, addresses)
		if err != nil {
			return nil, fmt.Errorf("save addresses: %w", err)
		}
		if saved {
			return addresses, nil
		}
		logging.FromContext(ctx).Debug("address book changed underneath, retrying",
			"user_id", caller.ID.Hex(), "attempt", attempt+1)
	}
	return nil, ErrConcurrentBookEdit
}

func find(addresses []model.Address, id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1, ErrInvalidID
	}
	for i := range addresses {
		if addresses[i].ID == oid {
			return i, nil
		}
	}
	return -1, ErrAddressNotFound
}

func (s *AddressService) List(ctx context.Context, caller *model.User) ([]model.Address, error) {
	return s.book(ctx, caller)
}

func (s *AddressService) Get(ctx context.Context, caller *model.User, id string) (*model.Address, error) {
	addresses, err := s.book(ctx, caller)
	if err != nil {
		return nil, err
	}
	i, err := find(addresses, id)
	if err != nil {
		return nil, err
	}
	return &addresses[i], nil
}

func validateAddress(a *model.Address) error {
	switch {
	case a.FullName == "":
		return validationError("fullName is required")
	case a.AddressLine1 == "":
		return validationError("addressLine1 is required")
	case a.City == "":
		return validationError("city is required")
	case a.Country == "":
		return validationError("country is required")
	case !ValidPhone(a.Phone):
		return ErrInvalidPhone
	case !ValidPincode(a.PostalCode):
		return ErrInvalidPincode
	}
	return nil
}

// Add appends an address and returns the whole book. A new default clears
// the flag on every other address.
func (s *AddressService) Add(ctx context.Context, caller *model.User, in AddressInput) ([]model.Address, error) {
	now := s.now().UTC()
	addr := model.Address{ID: primitive.NewObjectID(), Label: defaultAddressLabel, CreatedAt: now, UpdatedAt: now}
	in.applyTo(&addr)
	if err := validateAddress(&addr); err != nil {
		return nil, err
	}

	addresses, err := s.edit(ctx, caller, func(addresses []model.Address) ([]model.Address, error) {
		if addr.IsDefault {
			clearDefaults(addresses)
		}
		return append(addresses, addr), nil
	})
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *AddressService) Update(ctx context.Context, caller *model.User, id string, in AddressInput) (*model.Address, error) {
	var updated model.Address
	_, err := s.edit(ctx, caller, func(addresses []model.Address) ([]model.Address, error) {
		i, err := find(addresses, id)
		if err != nil {
			return nil, err
		}
		updated = addresses[i]
		in.applyTo(&updated)
		if err := validateAddress(&updated); err != nil {
			return nil, err
		}
		updated.UpdatedAt = s.now().UTC()

		if updated.IsDefault {
			clearDefaults(addresses)
		}
		addresses[i] = updated
		return addresses, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the address; removing an unknown id is not an error.
func (s *AddressService) Delete(ctx context.Context, caller *model.User, id string) error {
	_, err := s.edit(ctx, caller, func(addresses []model.Address) ([]model.Address, error) {
		i, err := find(addresses, id)
		if err != nil {
			return nil, err
		}
		return append(addresses[:i], addresses[i+1:]...), nil
	})
	if errors.Is(err, ErrAddressNotFound) {
		return nil
	}
	return err
}

func clearDefaults(addresses []model.Address) {
	for i := range addresses {
		addresses[i].IsDefault = false
	}
}

func (in AddressInput) applyTo(a *model.Address) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.Label, in.Label)
	set(&a.FullName, in.FullName)
	set(&a.Phone, in.Phone)
	set(&a.AddressLine1, in.AddressLine1)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.PostalCode, in.PostalCode)
	set(&a.Country, in.Country)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
}
