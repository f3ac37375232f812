package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "membergate/pkg/domain"
)

func TestMemoryDirectory_ElevateToVettedMember(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes a member", func(t *testing.T) {
		dir := NewMemoryDirectory()
		userID := id.NewUserID()
		dir.Seed(User{ID: userID, Email: "m@example.com", Role: RoleMember})

		require.NoError(t, dir.ElevateToVettedMember(ctx, userID))

		u, err := dir.FindByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, RoleVettedMember, u.Role)
	})

	t.Run("does not downgrade an administrator", func(t *testing.T) {
		dir := NewMemoryDirectory()
		userID := id.NewUserID()
		dir.Seed(User{ID: userID, Role: RoleAdministrator})

		require.NoError(t, dir.ElevateToVettedMember(ctx, userID))

		u, err := dir.FindByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, RoleAdministrator, u.Role)
	})

	t.Run("unknown user returns not found", func(t *testing.T) {
		dir := NewMemoryDirectory()
		err := dir.ElevateToVettedMember(ctx, id.NewUserID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
