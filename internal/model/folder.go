package model

import (
	"time"

	"github.com/google/uuid"
)

// Folder 对应于数据库中的 'folders' 表。
// 文件夹通过 ParentID 构成每桶一棵的自引用树：
//   - 每个桶恰有一个 ParentID 为 NULL 的根文件夹，其 Name 为空串，
//     不可通过路径按名寻址；
//   - 其余文件夹都有且仅有一个同桶的父节点（跨桶父引用在创建时被拒绝）；
//   - 树天然无环，因为文件夹只会挂到已存在的父节点上，且只做自下而上的遍历。
//
// (bucket_id, parent_id, name) 上的唯一索引是 EnsurePath 并发幂等性的依据：
// 竞争创建同一段路径时，输掉的一方按成功处理，改为读取赢家的行。
type Folder struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(255);not null;uniqueIndex:uk_folders_bucket_parent_name" json:"name"`
	BucketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_folders_bucket_parent_name" json:"bucketId"`
	// ParentID 指向父文件夹。使用指针以接受 NULL，表示根文件夹。
	ParentID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_folders_bucket_parent_name" json:"parentId"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Folder) TableName() string {
	return "folders"
}

// Entry 是文件夹内容列表中的一项，文件夹与文件统一呈现。
// Kind 为 "folder" 或 "file"。
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy uuid.UUID `json:"createdBy"`
	UserName  *string   `json:"userName"`
	UserEmail *string   `json:"userEmail"`
}
