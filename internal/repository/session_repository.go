package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SessionRepository 接口定义了登录会话的存储方法，底层是 Redis。
// 会话 id 同时写入 access/refresh token 的声明中，注销即删除会话，
// 两个 token 随之一起失效。
type SessionRepository interface {
	Create(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionRepository struct {
	redisClient *redis.Client
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(redisClient *redis.Client) SessionRepository {
	return &sessionRepository{redisClient: redisClient}
}

// sessionKey generates the redis key for a login session.
func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Create 写入一条会话记录，TTL 与 refresh token 的有效期一致。
func (r *sessionRepository) Create(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	return r.redisClient.Set(ctx, sessionKey(sessionID), userID.String(), ttl).Err()
}

// Exists 报告会话是否仍然有效。
func (r *sessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.redisClient.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete 删除会话记录，注销时调用。
func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.redisClient.Del(ctx, sessionKey(sessionID)).Err()
}
