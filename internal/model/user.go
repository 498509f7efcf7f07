// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"time"

	"github.com/google/uuid"
)

// User 对应于数据库中的 'users' 表。
// 核心只消费它的 ID；其余字段服务于注册/登录等外围接口。
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Name 是用户的显示名称。
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	// Email 与 Username 均要求全局唯一。
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Username string `gorm:"type:varchar(255);not null;uniqueIndex" json:"username"`
	// Password 存储 bcrypt 哈希。使用指针以接受 NULL（如第三方登录用户）。
	Password   *string    `gorm:"type:varchar(255)" json:"-"`
	IsVerified bool       `gorm:"not null;default:false" json:"isVerified"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	// Image 是用户头像的 URL。
	Image *string `gorm:"type:varchar(511)" json:"image"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
