package model

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationRole 是组织成员的角色枚举，按修改权限从高到低排列。
type OrganizationRole string

const (
	RoleOwner     OrganizationRole = "OWNER"
	RoleAdmin     OrganizationRole = "ADMIN"
	RoleEditor    OrganizationRole = "EDITOR"
	RoleCommenter OrganizationRole = "COMMENTER"
	RoleViewer    OrganizationRole = "VIEWER"
)

// Valid 报告该角色是否为已知枚举值。
func (r OrganizationRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleCommenter, RoleViewer:
		return true
	}
	return false
}

// Editable 报告该角色是否属于可编辑层级（OWNER/ADMIN/EDITOR）。
// 所有对桶、文件夹和文件的创建/更新/删除操作都要求此权限；
// 读取和列表操作只要求成员身份。
func (r OrganizationRole) Editable() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

// Organization 对应于数据库中的 'organizations' 表。
// Name 同时作为物理存储路径的一段，因此要求唯一。
type Organization struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Organization) TableName() string {
	return "organizations"
}

// UserOrganization 对应于数据库中的 'user_organizations' 表，即组织成员关系。
// 复合主键 (user_id, organization_id) 保证每对用户/组织至多一条成员记录。
type UserOrganization struct {
	UserID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"userId"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"organizationId"`
	Role           OrganizationRole `gorm:"type:varchar(16);not null" json:"role"`
	// AddedBy 记录了把该用户加入组织的操作者。组织创建者的 OWNER 记录此字段为 NULL。
	AddedBy *uuid.UUID `gorm:"type:uuid" json:"addedBy"`
	AddedAt time.Time  `gorm:"autoCreateTime" json:"addedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserOrganization) TableName() string {
	return "user_organizations"
}
