package authz

import (
	"testing"

	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/stretchr/testify/assert"
)

func TestRequireAuthenticated(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, RequireAuthenticated(Guest()), faults.ErrUnauthenticated)
	assert.ErrorIs(t, RequireAuthenticated(Principal{}), faults.ErrUnauthenticated)
	assert.NoError(t, RequireAuthenticated(Principal{Role: RoleCreator, ID: 1}))
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, RequireAdmin(Guest()), faults.ErrUnauthenticated)
	assert.ErrorIs(t, RequireAdmin(Principal{Role: RoleBusiness, ID: 1}), faults.ErrForbidden)
	assert.NoError(t, RequireAdmin(Principal{Role: RoleAdmin, ID: 1}))
}

func TestOwnershipChecks(t *testing.T) {
	t.Parallel()

	biz := Principal{Role: RoleBusiness, ID: 5}
	creator := Principal{Role: RoleCreator, ID: 7}
	admin := Principal{Role: RoleAdmin, ID: 1}

	assert.NoError(t, RequireBusinessOwner(biz, 5))
	assert.ErrorIs(t, RequireBusinessOwner(biz, 6), faults.ErrForbidden)
	assert.ErrorIs(t, RequireBusinessOwner(creator, 5), faults.ErrForbidden)
	assert.ErrorIs(t, RequireBusinessOwner(Guest(), 5), faults.ErrUnauthenticated)
	assert.NoError(t, RequireBusinessOwner(admin, 5))

	assert.NoError(t, RequireCreatorOwner(creator, 7))
	assert.ErrorIs(t, RequireCreatorOwner(creator, 8), faults.ErrForbidden)
	assert.ErrorIs(t, RequireCreatorOwner(biz, 7), faults.ErrForbidden)
	assert.NoError(t, RequireCreatorOwner(admin, 7))
}

func TestRequireParticipant(t *testing.T) {
	t.Parallel()

	creator := Principal{Role: RoleCreator, ID: 7}
	biz := Principal{Role: RoleBusiness, ID: 5}
	other := Principal{Role: RoleCreator, ID: 8}
	admin := Principal{Role: RoleAdmin, ID: 1}

	assert.NoError(t, RequireParticipant(creator, 7, 5))
	assert.NoError(t, RequireParticipant(biz, 7, 5))
	assert.NoError(t, RequireParticipant(admin, 7, 5))
	assert.ErrorIs(t, RequireParticipant(other, 7, 5), faults.ErrForbidden)
	assert.ErrorIs(t, RequireParticipant(Guest(), 7, 5), faults.ErrUnauthenticated)

	assert.True(t, IsParticipant(creator, 7, 5))
	assert.False(t, IsParticipant(other, 7, 5))
}
