package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
	"filedock-go/internal/repository"
	"filedock-go/pkg/token"
)

// UserRef 是成员列表中对用户的简要引用。
type UserRef struct {
	UserID   uuid.UUID `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

// MemberResponse 定义了组织成员列表项的结构。
type MemberResponse struct {
	UserRef
	Role    model.OrganizationRole `json:"role"`
	AddedAt model.LocalTime        `json:"addedAt"`
	AddedBy *UserRef               `json:"addedBy"`
}

// OrganizationService 接口定义了组织、成员与组织密钥的业务操作。
type OrganizationService interface {
	Create(name string, creator uuid.UUID) (*model.Organization, error)
	List(userID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.Organization, error)
	Fetch(organizationID, userID uuid.UUID) (*model.Organization, error)
	ListMembers(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, actor uuid.UUID) ([]MemberResponse, error)
	AddMember(organizationID, targetUserID uuid.UUID, role model.OrganizationRole, actor uuid.UUID) (*model.User, error)
	UpdateMember(organizationID, targetUserID uuid.UUID, role model.OrganizationRole, actor uuid.UUID) (*model.User, error)
	RemoveMember(organizationID, targetUserID, actor uuid.UUID) error

	// ValidateAccess 是唯一权威的成员身份查询，所有资源的级联检查都落到它。
	ValidateAccess(organizationID, userID uuid.UUID) (Access, error)

	CreateSecret(organizationID, actor uuid.UUID) (*model.OrganizationSecret, error)
	ListSecrets(organizationID uuid.UUID, limit, page int, actor uuid.UUID) ([]model.OrganizationSecret, error)
	DeleteSecret(id string, organizationID, actor uuid.UUID) error
	// OrganizationFromSecret 供 SDK 反查密钥所属的组织，
	// signature 是以密钥本身为 key、对密钥 id 计算的 HMAC。
	OrganizationFromSecret(id, signature string) (*model.Organization, error)
}

type organizationService struct {
	orgRepo    repository.OrganizationRepository
	userRepo   repository.UserRepository
	secretRepo repository.SecretRepository
	verify     func(secret, canonical, signature string) bool
}

// NewOrganizationService 创建一个新的 OrganizationService 实例。
// verify 是签名校验函数（signer.Verify），注入以便测试。
func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	secretRepo repository.SecretRepository,
	verify func(secret, canonical, signature string) bool,
) OrganizationService {
	return &organizationService{
		orgRepo:    orgRepo,
		userRepo:   userRepo,
		secretRepo: secretRepo,
		verify:     verify,
	}
}

// Create 创建组织，并在同一事务中为创建者写入 OWNER 成员记录。
// OWNER 角色自此不可变：后续的成员更新/移除操作都不能触碰它。
func (s *organizationService) Create(name string, creator uuid.UUID) (*model.Organization, error) {
	org := &model.Organization{
		ID:        model.NewID(),
		Name:      name,
		CreatedBy: creator,
	}
	owner := &model.UserOrganization{
		UserID:         creator,
		OrganizationID: org.ID,
		Role:           model.RoleOwner,
	}
	if err := s.orgRepo.CreateWithOwner(org, owner); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("组织名称已存在")
		}
		return nil, apperr.Internal("创建组织失败", err)
	}
	return org, nil
}

// List 列出调用者所属的组织。
func (s *organizationService) List(userID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.Organization, error) {
	orgs, err := s.orgRepo.ListForUser(userID, keyword, limit, cursor)
	if err != nil {
		return nil, apperr.Internal("查询组织列表失败", err)
	}
	return orgs, nil
}

// Fetch 获取单个组织，要求调用者是其成员。
func (s *organizationService) Fetch(organizationID, userID uuid.UUID) (*model.Organization, error) {
	access, err := s.ValidateAccess(organizationID, userID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed() {
		return nil, apperr.Forbidden("无权访问该组织")
	}
	return access.Organization, nil
}

// ValidateAccess 解析 (组织, 用户) 的成员关系。
// 组织不存在、成员关系不存在与基础设施错误是三种不同的结果：
// 前两种进入 Access.Status，调用方统一对外呈现为 Forbidden。
func (s *organizationService) ValidateAccess(organizationID, userID uuid.UUID) (Access, error) {
	org, err := s.orgRepo.FindByID(organizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Access{Status: AccessNotFound}, nil
		}
		return Access{}, apperr.Internal("查询组织失败", err)
	}

	membership, err := s.orgRepo.FindMembership(organizationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Access{Status: AccessNotAMember, Organization: org}, nil
		}
		return Access{}, apperr.Internal("查询成员关系失败", err)
	}

	return Access{Status: AccessAllowed, Organization: org, Membership: membership}, nil
}

// ListMembers 列出组织成员，要求调用者是成员。
func (s *organizationService) ListMembers(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, actor uuid.UUID) ([]MemberResponse, error) {
	access, err := s.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.Allowed() {
		return nil, apperr.Forbidden("无权访问该组织")
	}

	rows, err := s.orgRepo.ListMembers(organizationID, keyword, limit, cursor)
	if err != nil {
		return nil, apperr.Internal("查询成员列表失败", err)
	}

	members := make([]MemberResponse, 0, len(rows))
	for _, row := range rows {
		m := MemberResponse{
			UserRef: UserRef{
				UserID:   row.UserID,
				Name:     row.Name,
				Email:    row.Email,
				Username: row.Username,
			},
			Role:    row.Role,
			AddedAt: model.LocalTime(row.AddedAt),
		}
		if row.AddedByID != nil {
			m.AddedBy = &UserRef{UserID: *row.AddedByID}
			if row.AddedByName != nil {
				m.AddedBy.Name = *row.AddedByName
			}
			if row.AddedByEmail != nil {
				m.AddedBy.Email = *row.AddedByEmail
			}
			if row.AddedByUsername != nil {
				m.AddedBy.Username = *row.AddedByUsername
			}
		}
		members = append(members, m)
	}
	return members, nil
}

// AddMember 把用户加入组织；已是成员时失败。
func (s *organizationService) AddMember(organizationID, targetUserID uuid.UUID, role model.OrganizationRole, actor uuid.UUID) (*model.User, error) {
	access, err := s.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.Allowed() {
		return nil, apperr.Forbidden("无权访问该组织")
	}
	if !role.Valid() || role == model.RoleOwner {
		// OWNER 只在组织创建时产生一次
		return nil, apperr.Forbidden("不能授予 OWNER 角色")
	}

	target, err := s.userRepo.FindByID(targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("用户不存在")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}

	if _, err := s.orgRepo.FindMembership(organizationID, targetUserID); err == nil {
		return nil, apperr.Forbidden("用户已是该组织成员")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("查询成员关系失败", err)
	}

	m := &model.UserOrganization{
		UserID:         targetUserID,
		OrganizationID: organizationID,
		Role:           role,
		AddedBy:        &actor,
	}
	if err := s.orgRepo.CreateMembership(m); err != nil {
		return nil, apperr.Internal("添加成员失败", err)
	}
	return target, nil
}

// UpdateMember 修改成员角色。
// OWNER 是不可变角色：既不能把任何人改成 OWNER，也不能改动现任 OWNER。
func (s *organizationService) UpdateMember(organizationID, targetUserID uuid.UUID, role model.OrganizationRole, actor uuid.UUID) (*model.User, error) {
	if role == model.RoleOwner {
		return nil, apperr.Forbidden("不能将角色修改为 OWNER")
	}
	if !role.Valid() {
		return nil, apperr.Forbidden("未知的角色")
	}

	target, err := s.requireEditableMembership(organizationID, targetUserID, actor)
	if err != nil {
		return nil, err
	}

	if err := s.orgRepo.UpdateMembershipRole(organizationID, targetUserID, role); err != nil {
		return nil, apperr.Internal("更新成员角色失败", err)
	}
	return target, nil
}

// RemoveMember 把成员移出组织；现任 OWNER 不可移除。
func (s *organizationService) RemoveMember(organizationID, targetUserID, actor uuid.UUID) error {
	if _, err := s.requireEditableMembership(organizationID, targetUserID, actor); err != nil {
		return err
	}
	if err := s.orgRepo.DeleteMembership(organizationID, targetUserID); err != nil {
		return apperr.Internal("移除成员失败", err)
	}
	return nil
}

// requireEditableMembership 校验操作者有可编辑角色、目标是组织成员且不是 OWNER。
// 任何一条不满足都返回 Forbidden，成功时返回目标用户。
func (s *organizationService) requireEditableMembership(organizationID, targetUserID, actor uuid.UUID) (*model.User, error) {
	access, err := s.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权访问该组织")
	}

	target, err := s.userRepo.FindByID(targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("用户不存在")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}

	membership, err := s.orgRepo.FindMembership(organizationID, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("用户不是该组织成员")
		}
		return nil, apperr.Internal("查询成员关系失败", err)
	}
	if membership.Role == model.RoleOwner {
		return nil, apperr.Forbidden("不能变更或移除 OWNER")
	}
	return target, nil
}

// CreateSecret 为组织签发一个新密钥，要求可编辑角色。
// id 是 16 个十六进制字符的短标识，secret 是 32 个十六进制字符的密钥材料。
func (s *organizationService) CreateSecret(organizationID, actor uuid.UUID) (*model.OrganizationSecret, error) {
	access, err := s.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权访问该组织")
	}

	secret := &model.OrganizationSecret{
		ID:             token.GenerateRandomString(8),
		Secret:         token.GenerateRandomString(16),
		OrganizationID: organizationID,
		CreatedBy:      actor,
	}
	if err := s.secretRepo.Create(secret); err != nil {
		return nil, apperr.Internal("创建组织密钥失败", err)
	}
	return secret, nil
}

// ListSecrets 分页列出组织密钥，要求成员身份。
func (s *organizationService) ListSecrets(organizationID uuid.UUID, limit, page int, actor uuid.UUID) ([]model.OrganizationSecret, error) {
	access, err := s.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.Allowed() {
		return nil, apperr.Forbidden("无权访问该组织")
	}

	secrets, err := s.secretRepo.List(organizationID, limit, page)
	if err != nil {
		return nil, apperr.Internal("查询组织密钥失败", err)
	}
	return secrets, nil
}

// DeleteSecret 撤销组织密钥，要求可编辑角色。
// 撤销立即生效：密钥不做任何进程内缓存，下一次校验就看不到它了。
func (s *organizationService) DeleteSecret(id string, organizationID, actor uuid.UUID) error {
	access, err := s.ValidateAccess(organizationID, actor)
	if err != nil {
		return err
	}
	if !access.CanEdit() {
		return apperr.Forbidden("无权访问该组织")
	}
	if err := s.secretRepo.Delete(id, organizationID); err != nil {
		return apperr.Internal("删除组织密钥失败", err)
	}
	return nil
}

// OrganizationFromSecret 根据密钥 id 与签名反查组织。
func (s *organizationService) OrganizationFromSecret(id, signature string) (*model.Organization, error) {
	secret, err := s.secretRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("签名无效")
		}
		return nil, apperr.Internal("查询组织密钥失败", err)
	}
	if !s.verify(secret.Secret, secret.ID, signature) {
		return nil, apperr.Forbidden("签名无效")
	}

	org, err := s.orgRepo.FindByID(secret.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("签名无效")
		}
		return nil, apperr.Internal("查询组织失败", err)
	}
	return org, nil
}
