// Package database 负责初始化并持有共享的数据库连接。
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"filedock-go/internal/model"
	"filedock-go/pkg/log"
)

// DB 是全局的 gorm 连接池句柄，是核心唯一直接触碰的共享可变资源。
var DB *gorm.DB

// InitPostgres 初始化 PostgreSQL 数据库连接并配置连接池。
func InitPostgres(dsn string) {
	var err error
	// TranslateError 让唯一约束冲突映射为 gorm.ErrDuplicatedKey
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect database", err)
	}

	// 配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("PostgreSQL database connected successfully")
}

// Migrate 按依赖顺序建表。生产环境的结构变更由外部迁移工具管理，
// 这里只保证开发与测试环境的表结构存在。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Organization{},
		&model.UserOrganization{},
		&model.OrganizationSecret{},
		&model.Bucket{},
		&model.Folder{},
		&model.File{},
	)
}
