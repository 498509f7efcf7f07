package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"filedock-go/internal/model"
)

// BucketRepository 接口定义了桶的数据操作方法。
type BucketRepository interface {
	// CreateWithRootFolder 在同一事务中插入桶和它的根文件夹，
	// 两者要么都存在要么都不存在；物理目录的创建在事务之外。
	CreateWithRootFolder(bucket *model.Bucket, root *model.Folder) error
	FindByID(id uuid.UUID) (*model.Bucket, error)
	// FindByName 在组织内按名称定位桶，匿名路径访问使用它。
	FindByName(organizationID uuid.UUID, name string) (*model.Bucket, error)
	List(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.Bucket, error)
	Update(bucket *model.Bucket) error
	// DeleteCascade 在一个事务中删除桶、桶内全部文件夹以及其中的文件行。
	DeleteCascade(bucketID uuid.UUID) error
}

type bucketRepository struct {
	db *gorm.DB
}

// NewBucketRepository 创建一个新的 BucketRepository 实例。
func NewBucketRepository(db *gorm.DB) BucketRepository {
	return &bucketRepository{db: db}
}

// CreateWithRootFolder 原子地创建桶及其根文件夹。
func (r *bucketRepository) CreateWithRootFolder(bucket *model.Bucket, root *model.Folder) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bucket).Error; err != nil {
			return err
		}
		return tx.Create(root).Error
	})
}

// FindByID 根据 id 查找桶。
func (r *bucketRepository) FindByID(id uuid.UUID) (*model.Bucket, error) {
	var bucket model.Bucket
	if err := r.db.Where("id = ?", id).First(&bucket).Error; err != nil {
		return nil, err
	}
	return &bucket, nil
}

// FindByName 在组织内按名称查找桶。
func (r *bucketRepository) FindByName(organizationID uuid.UUID, name string) (*model.Bucket, error) {
	var bucket model.Bucket
	err := r.db.Where("organization_id = ? AND name = ?", organizationID, name).First(&bucket).Error
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

// List 列出组织下的桶，支持关键词过滤与 id 游标分页。
func (r *bucketRepository) List(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.Bucket, error) {
	query := r.db.Where("organization_id = ?", organizationID)
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}
	if cursor != nil {
		query = query.Where("id > ?", *cursor)
	}

	var buckets []model.Bucket
	err := query.Order("id").Limit(limit).Find(&buckets).Error
	return buckets, err
}

// Update 保存桶的变更。
func (r *bucketRepository) Update(bucket *model.Bucket) error {
	return r.db.Save(bucket).Error
}

// DeleteCascade 删除桶与其全部层级数据行。
// 物理目录树的删除由调用方在事务提交后执行。
func (r *bucketRepository) DeleteCascade(bucketID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM files WHERE folder_id IN (SELECT id FROM folders WHERE bucket_id = ?)",
			bucketID).Error; err != nil {
			return err
		}
		if err := tx.Where("bucket_id = ?", bucketID).Delete(&model.Folder{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", bucketID).Delete(&model.Bucket{}).Error
	})
}
