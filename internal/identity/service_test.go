package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munim-pos/munim/internal/shared"
)

type mapRepo map[int64]Actor

func (m mapRepo) GetActor(ctx context.Context, id int64) (Actor, error) {
	actor, ok := m[id]
	if !ok {
		return Actor{}, shared.ErrNotFound
	}
	return actor, nil
}

func seededService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashKey("s3cret")
	require.NoError(t, err)
	return NewService(mapRepo{
		1: {ID: 1, Name: "Owner", Role: RoleOwner, KeyHash: hash},
		2: {ID: 2, Name: "Clerk", Role: RoleClerk, KeyHash: hash},
	})
}

func TestAuthenticate(t *testing.T) {
	svc := seededService(t)

	actor, err := svc.Authenticate(context.Background(), "1.s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Owner", actor.Name)

	_, err = svc.Authenticate(context.Background(), "1.wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "no-dot")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "99.s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthorizeStockOverride(t *testing.T) {
	svc := seededService(t)

	require.NoError(t, svc.AuthorizeStockOverride(context.Background(), 1))
	require.ErrorIs(t, svc.AuthorizeStockOverride(context.Background(), 2), shared.ErrPermission)
	require.ErrorIs(t, svc.AuthorizeStockOverride(context.Background(), 99), shared.ErrPermission)
}

func TestRoleCanOverrideStock(t *testing.T) {
	assert.True(t, RoleOwner.CanOverrideStock())
	assert.True(t, RoleManager.CanOverrideStock())
	assert.False(t, RoleClerk.CanOverrideStock())
}
