package model

import "github.com/google/uuid"

// NewID 生成一个 UUIDv7 作为主键，时间有序的 id 让游标分页天然按创建顺序排列。
// 极少数情况下 v7 生成失败（随机源不可用），退化为 v4。
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
