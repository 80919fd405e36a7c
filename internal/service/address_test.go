package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/model"
)

func ptr[T any](v T) *T { return &v }

func validAddress() AddressInput {
	return AddressInput{
		FullName:     ptr("Asha Rao"),
		Phone:        ptr("9876543210"),
		AddressLine1: ptr("12 MG Road"),
		City:         ptr("Bengaluru"),
		State:        ptr("KA"),
		PostalCode:   ptr("560001"),
		Country:      ptr("India"),
	}
}

func TestValidPhoneAndPincode(t *testing.T) {
	assert.True(t, ValidPhone("6000000000"))
	assert.False(t, ValidPhone("5999999999"))
	assert.False(t, ValidPhone("98765"))
	assert.False(t, ValidPhone("98765432101"))

	assert.True(t, ValidPincode("560001"))
	assert.False(t, ValidPincode("56001"))
	assert.False(t, ValidPincode("56000a"))
}

func TestAddressService_Add_DefaultsToHomeLabel(t *testing.T) {
	users := newMockUserRepo()
	u := seedUser(t, users, "a@example.com", false)
	svc := NewAddressService(users)

	book, err := svc.Add(context.Background(), u, validAddress())
	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, "Home", book[0].Label)
	assert.False(t, book[0].ID.IsZero())
}

func TestAddressService_Add_Validation(t *testing.T) {
	users := newMockUserRepo()
	u := seedUser(t, users, "a@example.com", false)
	svc := NewAddressService(users)

	badPhone := validAddress()
	badPhone.Phone = ptr("12345")
	_, err := svc.Add(context.Background(), u, badPhone)
	assert.ErrorIs(t, err, ErrInvalidPhone)

	badPin := validAddress()
	badPin.PostalCode = ptr("ABC123")
	_, err = svc.Add(context.Background(), u, badPin)
	assert.ErrorIs(t, err, ErrInvalidPincode)

	missing := validAddress()
	missing.City = nil
	_, err = svc.Add(context.Background(), u, missing)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, users.users[u.ID].Addresses)
}

func TestAddressService_SingleDefault(t *testing.T) {
	users := newMockUserRepo()
	u := seedUser(t, users, "a@example.com", false)
	svc := NewAddressService(users)

	first := validAddress()
	first.IsDefault = ptr(true)
	book, err := svc.Add(context.Background(), u, first)
	require.NoError(t, err)
	firstID := book[0].ID

	second := validAddress()
	second.IsDefault = ptr(true)
	book, err = svc.Add(context.Background(), u, second)
	require.NoError(t, err)
	require.Len(t, book, 2)
	assert.False(t, book[0].IsDefault)
	assert.True(t, book[1].IsDefault)

	_, err = svc.Update(context.Background(), u, firstID.Hex(), AddressInput{IsDefault: ptr(true)})
	require.NoError(t, err)

	defaults := 0
	for _, a := range users.users[u.ID].Addresses {
		if a.IsDefault {
			defaults++
			assert.Equal(t, firstID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestAddressService_UpdateGetDelete(t *testing.T) {
	users := newMockUserRepo()
	u := seedUser(t, users, "a@example.com", false)
	svc := NewAddressService(users)

	book, err := svc.Add(context.Background(), u, validAddress())
	require.NoError(t, err)
	id := book[0].ID.Hex()

	updated, err := svc.Update(context.Background(), u, id, AddressInput{City: ptr("Mysuru"), Label: ptr("Work")})
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)
	assert.Equal(t, "Work", updated.Label)

	_, err = svc.Update(context.Background(), u, id, AddressInput{Phone: ptr("123")})
	assert.ErrorIs(t, err, ErrInvalidPhone)

	got, err := svc.Get(context.Background(), u, id)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", got.City)

	_, err = svc.Get(context.Background(), u, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrAddressNotFound)

	require.NoError(t, svc.Delete(context.Background(), u, id))
	require.NoError(t, svc.Delete(context.Background(), u, id))
	list, err := svc.List(context.Background(), u)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddressService_Add_ConcurrentWriteKeepsBoth(t *testing.T) {
	users := newMockUserRepo()
	u := seedUser(t, users, "a@example.com", false)
	svc := NewAddressService(users)

	other := primitive.NewObjectID()
	raced := false
	users.beforeSave = func(id primitive.ObjectID) {
		if raced {
			return
		}
		raced = true
		stored := users.users[id]
		stored.Addresses = append(stored.Addresses, model.Address{ID: other, FullName: "Other"})
		stored.AddressVersion++
	}

	book, err := svc.Add(context.Background(), u, validAddress())
	require.NoError(t, err)
	require.Len(t, book, 2)
	assert.Equal(t, other, book[0].ID)
	assert.Len(t, users.users[u.ID].Addresses, 2)
	assert.Equal(t, 2, users.users[u.ID].AddressVersion)
}

func TestAddressService_Add_GivesUpUnderContention(t *testing.T) {
	users := newMockUserRepo()
	u := seedUser(t, users, "a@example.com", false)
	svc := NewAddressService(users)
	users.beforeSave = func(id primitive.ObjectID) { users.users[id].AddressVersion++ }

	_, err := svc.Add(context.Background(), u, validAddress())
	assert.ErrorIs(t, err, ErrConcurrentBookEdit)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, users.users[u.ID].Addresses)
}
