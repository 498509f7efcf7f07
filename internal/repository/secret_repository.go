package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"filedock-go/internal/model"
)

// SecretRepository 接口定义了组织密钥的数据操作方法。
// 密钥永远不缓存在进程内：管理员可能随时撤销，下一次请求必须看到新状态。
type SecretRepository interface {
	Create(secret *model.OrganizationSecret) error
	// FindScoped 在组织范围内按 id 查找密钥。
	// 范围化查找保证不会向其他组织泄露密钥是否存在。
	FindScoped(id string, organizationID uuid.UUID) (*model.OrganizationSecret, error)
	// FindByID 全局按 id 查找密钥，仅供 SDK 的组织反查接口使用。
	FindByID(id string) (*model.OrganizationSecret, error)
	List(organizationID uuid.UUID, limit, page int) ([]model.OrganizationSecret, error)
	Delete(id string, organizationID uuid.UUID) error
}

type secretRepository struct {
	db *gorm.DB
}

// NewSecretRepository 创建一个新的 SecretRepository 实例。
func NewSecretRepository(db *gorm.DB) SecretRepository {
	return &secretRepository{db: db}
}

// Create 在数据库中插入一条新的组织密钥记录。
func (r *secretRepository) Create(secret *model.OrganizationSecret) error {
	return r.db.Create(secret).Error
}

// FindScoped 在组织范围内按 id 查找密钥。
func (r *secretRepository) FindScoped(id string, organizationID uuid.UUID) (*model.OrganizationSecret, error) {
	var secret model.OrganizationSecret
	err := r.db.Where("id = ? AND organization_id = ?", id, organizationID).First(&secret).Error
	if err != nil {
		return nil, err
	}
	return &secret, nil
}

// FindByID 全局按 id 查找密钥。
func (r *secretRepository) FindByID(id string) (*model.OrganizationSecret, error) {
	var secret model.OrganizationSecret
	if err := r.db.Where("id = ?", id).First(&secret).Error; err != nil {
		return nil, err
	}
	return &secret, nil
}

// List 分页列出组织的密钥。
func (r *secretRepository) List(organizationID uuid.UUID, limit, page int) ([]model.OrganizationSecret, error) {
	if page < 1 {
		page = 1
	}
	var secrets []model.OrganizationSecret
	err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&secrets).Error
	return secrets, err
}

// Delete 在组织范围内删除一条密钥记录。
func (r *secretRepository) Delete(id string, organizationID uuid.UUID) error {
	return r.db.Where("id = ? AND organization_id = ?", id, organizationID).
		Delete(&model.OrganizationSecret{}).Error
}
