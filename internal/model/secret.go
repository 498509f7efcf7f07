package model

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationSecret 对应于数据库中的 'organization_secrets' 表。
// 它是能力 URL 的 HMAC 密钥材料，严格绑定到一个组织：
// 一个密钥可以授权该组织下的多个桶，撤销时以组织为边界。
// ID 是短小的不透明标识（16 个十六进制字符），可以出现在 URL 中；
// Secret 本身（32 个十六进制字符）永远不进入 URL。
type OrganizationSecret struct {
	ID             string    `gorm:"type:char(16);primaryKey" json:"id"`
	Secret         string    `gorm:"type:char(32);not null" json:"secret"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null" json:"organizationId"`
	CreatedBy      uuid.UUID `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (OrganizationSecret) TableName() string {
	return "organization_secrets"
}
