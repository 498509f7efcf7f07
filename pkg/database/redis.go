package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"filedock-go/pkg/log"
)

// RDB 是全局的 Redis 客户端，会话存储使用它。
var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接并验证连通性。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}
