// Package service 包含了应用的业务逻辑层。
package service

import (
	"filedock-go/internal/model"
)

// AccessStatus 是一次授权检查的类型化结果。
type AccessStatus int

const (
	// AccessAllowed 表示调用者是组织成员。
	AccessAllowed AccessStatus = iota
	// AccessNotAMember 表示组织存在但调用者不是成员。
	// 已认证但非成员必须被视为 Forbidden，任何调用方都不得放行。
	AccessNotAMember
	// AccessNotFound 表示组织（或通向组织的连接行）不存在。
	// 对外与 AccessNotAMember 合并呈现，不泄露资源是否存在。
	AccessNotFound
)

// Access 携带授权检查的结果与上下文。
// Status 为 AccessAllowed 时 Organization 与 Membership 均非空；
// 为 AccessNotAMember 时只有 Organization 非空。
type Access struct {
	Status       AccessStatus
	Organization *model.Organization
	Membership   *model.UserOrganization
}

// Allowed 报告调用者是否为组织成员。
func (a Access) Allowed() bool {
	return a.Status == AccessAllowed
}

// CanEdit 报告调用者是否持有可编辑层级的角色（OWNER/ADMIN/EDITOR）。
func (a Access) CanEdit() bool {
	return a.Allowed() && a.Membership.Role.Editable()
}
