package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"filedock-go/internal/model"
)

// MemberRow 是成员列表查询的扁平结果行，带操作者（added_by）的用户信息。
type MemberRow struct {
	UserID          uuid.UUID              `json:"userId"`
	Name            string                 `json:"name"`
	Email           string                 `json:"email"`
	Username        string                 `json:"username"`
	Role            model.OrganizationRole `json:"role"`
	AddedAt         time.Time              `json:"addedAt"`
	AddedByID       *uuid.UUID             `json:"addedById"`
	AddedByName     *string                `json:"addedByName"`
	AddedByEmail    *string                `json:"addedByEmail"`
	AddedByUsername *string                `json:"addedByUsername"`
}

// OrganizationRepository 接口定义了组织与成员关系的数据操作方法。
type OrganizationRepository interface {
	// CreateWithOwner 在同一事务中插入组织和创建者的 OWNER 成员记录，
	// 两者要么都存在要么都不存在。
	CreateWithOwner(org *model.Organization, owner *model.UserOrganization) error
	FindByID(id uuid.UUID) (*model.Organization, error)
	FindByName(name string) (*model.Organization, error)
	ListForUser(userID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.Organization, error)
	FindMembership(organizationID, userID uuid.UUID) (*model.UserOrganization, error)
	CreateMembership(m *model.UserOrganization) error
	UpdateMembershipRole(organizationID, userID uuid.UUID, role model.OrganizationRole) error
	DeleteMembership(organizationID, userID uuid.UUID) error
	ListMembers(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]MemberRow, error)
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository 创建一个新的 OrganizationRepository 实例。
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// CreateWithOwner 原子地创建组织及其 OWNER 成员记录。
func (r *organizationRepository) CreateWithOwner(org *model.Organization, owner *model.UserOrganization) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
}

// FindByID 根据 id 查找组织。
func (r *organizationRepository) FindByID(id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByName 根据名称查找组织，匿名路径访问以组织名定位。
func (r *organizationRepository) FindByName(name string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ListForUser 列出用户所属的组织，支持关键词过滤与 id 游标分页。
func (r *organizationRepository) ListForUser(userID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.Organization, error) {
	query := r.db.Model(&model.Organization{}).
		Joins("INNER JOIN user_organizations ON user_organizations.organization_id = organizations.id").
		Where("user_organizations.user_id = ?", userID)
	if keyword != "" {
		query = query.Where("organizations.name ILIKE ?", "%"+keyword+"%")
	}
	if cursor != nil {
		query = query.Where("organizations.id > ?", *cursor)
	}

	var orgs []model.Organization
	err := query.Order("organizations.id").Limit(limit).Find(&orgs).Error
	return orgs, err
}

// FindMembership 查找一对 (组织, 用户) 的成员记录。
func (r *organizationRepository) FindMembership(organizationID, userID uuid.UUID) (*model.UserOrganization, error) {
	var m model.UserOrganization
	err := r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMembership 插入一条成员记录。
func (r *organizationRepository) CreateMembership(m *model.UserOrganization) error {
	return r.db.Create(m).Error
}

// UpdateMembershipRole 修改成员的角色。
func (r *organizationRepository) UpdateMembershipRole(organizationID, userID uuid.UUID, role model.OrganizationRole) error {
	return r.db.Model(&model.UserOrganization{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Update("role", role).Error
}

// DeleteMembership 删除一条成员记录。
func (r *organizationRepository) DeleteMembership(organizationID, userID uuid.UUID) error {
	return r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&model.UserOrganization{}).Error
}

// ListMembers 列出组织成员及把他们加入组织的操作者信息。
func (r *organizationRepository) ListMembers(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]MemberRow, error) {
	cond := ""
	args := []interface{}{organizationID}
	if keyword != "" {
		cond += " AND (users.username ILIKE ? OR users.name ILIKE ? OR users.email ILIKE ?)"
		pattern := "%" + keyword + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if cursor != nil {
		cond += " AND users.id > ?"
		args = append(args, *cursor)
	}
	args = append(args, limit)

	query := `
SELECT users.id AS user_id, users.name AS name, users.email AS email, users.username AS username,
       user_organizations.role AS role, user_organizations.added_at AS added_at,
       added_by_users.id AS added_by_id, added_by_users.name AS added_by_name,
       added_by_users.email AS added_by_email, added_by_users.username AS added_by_username
FROM user_organizations
INNER JOIN users ON users.id = user_organizations.user_id
LEFT JOIN users AS added_by_users ON added_by_users.id = user_organizations.added_by
WHERE user_organizations.organization_id = ?` + cond + `
ORDER BY users.id
LIMIT ?`

	var rows []MemberRow
	if err := r.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
