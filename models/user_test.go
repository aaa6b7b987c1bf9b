package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModerator.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, UserRole("superuser").Valid())
	assert.False(t, UserRole("").Valid())
}

func TestUserRoleHasAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.HasAtLeast(RoleUser))
	assert.True(t, RoleAdmin.HasAtLeast(RoleModerator))
	assert.True(t, RoleAdmin.HasAtLeast(RoleAdmin))

	assert.True(t, RoleModerator.HasAtLeast(RoleUser))
	assert.True(t, RoleModerator.HasAtLeast(RoleModerator))
	assert.False(t, RoleModerator.HasAtLeast(RoleAdmin))

	assert.True(t, RoleUser.HasAtLeast(RoleUser))
	assert.False(t, RoleUser.HasAtLeast(RoleModerator))

	// Неизвестная роль не проходит никакую проверку, в обе стороны.
	assert.False(t, UserRole("superuser").HasAtLeast(RoleUser))
	assert.False(t, RoleAdmin.HasAtLeast(UserRole("superuser")))
}
