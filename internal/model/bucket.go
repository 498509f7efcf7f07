package model

import (
	"time"

	"github.com/google/uuid"
)

// BucketVisibility 是桶的可见性枚举。
// PUBLIC 桶允许匿名读取；写入与删除无论可见性如何都要求能力签名。
type BucketVisibility string

const (
	VisibilityPublic  BucketVisibility = "PUBLIC"
	VisibilityPrivate BucketVisibility = "PRIVATE"
)

// Valid 报告该可见性是否为已知枚举值。
func (v BucketVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Bucket 对应于数据库中的 'buckets' 表。
// 每个桶严格属于一个组织；创建桶时会在同一事务内插入其根文件夹，
// 并在提交后创建物理目录 files/{organization.name}/{bucket.name}。
type Bucket struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string           `gorm:"type:varchar(255);not null;uniqueIndex:uk_buckets_org_name" json:"name"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_buckets_org_name" json:"organizationId"`
	CreatedBy      uuid.UUID        `gorm:"type:uuid;not null" json:"createdBy"`
	Visibility     BucketVisibility `gorm:"type:varchar(16);not null;default:PRIVATE" json:"visibility"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      *time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Bucket) TableName() string {
	return "buckets"
}
