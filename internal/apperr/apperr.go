// Package apperr 定义了业务层统一的错误分类。
// 分类只有四种：NotFound（资源或路径段不存在）、Forbidden（无成员身份、
// 角色不足、签名或有效期无效、密钥不存在）、Conflict（唯一约束冲突且契约
// 明确对外暴露时）、Internal（文件系统或数据库意外错误）。
// 对资源存在性的探测，服务层会把 NotFound 与 Forbidden 合并为 Forbidden
// 返回，避免向无权限的调用者泄露资源是否存在。
package apperr

import (
	"errors"
	"net/http"
)

// Kind 是错误的分类。
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindConflict
	KindInternal
)

// Error 携带分类、对外消息与底层错误。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回底层错误，支持 errors.Is/As 链。
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound 构造一个 NotFound 错误。
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden 构造一个 Forbidden 错误。
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Conflict 构造一个 Conflict 错误。
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal 构造一个 Internal 错误并保留底层原因。
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 返回错误的分类；非本包错误一律视为 Internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus 把错误分类映射为 HTTP 状态码，供 handler 层使用。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message 返回可对外展示的错误消息；Internal 错误只暴露概要，不暴露底层细节。
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "服务内部错误"
}
