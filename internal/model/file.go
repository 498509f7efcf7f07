package model

import (
	"time"

	"github.com/google/uuid"
)

// File 对应于数据库中的 'files' 表，是文件夹树的叶子节点。
// (folder_id, name) 上的唯一索引支撑基于路径的写入：
// 能力签名保存操作按 insert-or-ignore 处理数据库身份，
// 物理内容则始终以最后一次写入为准。
type File struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null;uniqueIndex:uk_files_folder_name" json:"name"`
	FolderID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_files_folder_name" json:"folderId"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (File) TableName() string {
	return "files"
}
