package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrganizationRoleValid(t *testing.T) {
	for _, role := range []OrganizationRole{RoleOwner, RoleAdmin, RoleEditor, RoleCommenter, RoleViewer} {
		assert.True(t, role.Valid(), "role %s", role)
	}
	assert.False(t, OrganizationRole("SUPERUSER").Valid())
	assert.False(t, OrganizationRole("").Valid())
	assert.False(t, OrganizationRole("owner").Valid(), "角色区分大小写")
}

func TestOrganizationRoleEditable(t *testing.T) {
	assert.True(t, RoleOwner.Editable())
	assert.True(t, RoleAdmin.Editable())
	assert.True(t, RoleEditor.Editable())
	assert.False(t, RoleCommenter.Editable())
	assert.False(t, RoleViewer.Editable())
	assert.False(t, OrganizationRole("SUPERUSER").Editable())
}

func TestBucketVisibilityValid(t *testing.T) {
	assert.True(t, VisibilityPublic.Valid())
	assert.True(t, VisibilityPrivate.Valid())
	assert.False(t, BucketVisibility("INTERNAL").Valid())
	assert.False(t, BucketVisibility("public").Valid())
}
