package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository"
)

func TestUserRepo_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo()

	alice := &domain.User{Name: "alice", PasswordHash: "x", Avatar: "a.png"}
	require.NoError(t, r.Create(ctx, alice))
	assert.Equal(t, int64(1), alice.ID)

	bob := &domain.User{Name: "bob"}
	require.NoError(t, r.Create(ctx, bob))
	assert.Equal(t, int64(2), bob.ID)

	byName, err := r.GetByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "a.png", byName.Avatar)

	byID, err := r.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "bob", byID.Name)

	missing, err := r.GetByName(ctx, "Alice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	users, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
}

func TestUserRepo_DuplicateName(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo()

	require.NoError(t, r.Create(ctx, &domain.User{Name: "alice"}))
	err := r.Create(ctx, &domain.User{Name: "alice", Avatar: "other.png"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
