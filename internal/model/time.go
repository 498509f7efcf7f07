package model

import (
	"fmt"
	"time"
)

// LocalTime 是自定义时间类型，序列化为 "YYYY-MM-DD HH:MM:SS" 格式，
// 用于对外展示的 DTO（如成员列表的加入时间）。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}

// Time 返回底层的 time.Time。
func (t LocalTime) Time() time.Time {
	return time.Time(t)
}
