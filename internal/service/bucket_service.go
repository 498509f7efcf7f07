package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
	"filedock-go/internal/repository"
	"filedock-go/pkg/log"
	"filedock-go/pkg/storage"
)

// BucketService 接口定义了桶的业务操作。
type BucketService interface {
	Create(name string, organizationID, actor uuid.UUID) (*model.Bucket, error)
	List(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, actor uuid.UUID) ([]model.Bucket, error)
	Update(bucketID uuid.UUID, name *string, visibility *model.BucketVisibility, actor uuid.UUID) (*model.Bucket, error)
	Delete(bucketID, actor uuid.UUID) (*model.Bucket, error)
}

type bucketService struct {
	bucketRepo repository.BucketRepository
	orgService OrganizationService
	store      *storage.LocalStorage
}

// NewBucketService 创建一个新的 BucketService 实例。
func NewBucketService(bucketRepo repository.BucketRepository, orgService OrganizationService, store *storage.LocalStorage) BucketService {
	return &bucketService{
		bucketRepo: bucketRepo,
		orgService: orgService,
		store:      store,
	}
}

// Create 创建桶。
// 桶行与根文件夹行在同一事务中落库；物理目录在提交后创建，
// 不在事务内。两步之间进程崩溃会留下没有目录的桶，属于已接受的漂移，
// 靠带外修复，不做自动对账。
func (s *bucketService) Create(name string, organizationID, actor uuid.UUID) (*model.Bucket, error) {
	access, err := s.orgService.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权访问该组织")
	}

	bucket := &model.Bucket{
		ID:             model.NewID(),
		Name:           name,
		OrganizationID: organizationID,
		CreatedBy:      actor,
		Visibility:     model.VisibilityPrivate,
	}
	root := &model.Folder{
		ID:        model.NewID(),
		Name:      "",
		BucketID:  bucket.ID,
		CreatedBy: actor,
	}
	if err := s.bucketRepo.CreateWithRootFolder(bucket, root); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("桶名称已存在")
		}
		return nil, apperr.Internal("创建桶失败", err)
	}

	if err := s.store.CreateBucketDir(access.Organization.Name, bucket.Name); err != nil {
		log.Warnw("创建桶目录失败", "organization", access.Organization.Name, "bucket", bucket.Name, "error", err)
	}
	return bucket, nil
}

// List 列出组织下的桶，要求成员身份。
func (s *bucketService) List(organizationID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, actor uuid.UUID) ([]model.Bucket, error) {
	access, err := s.orgService.ValidateAccess(organizationID, actor)
	if err != nil {
		return nil, err
	}
	if !access.Allowed() {
		return nil, apperr.Forbidden("无权访问该组织")
	}

	buckets, err := s.bucketRepo.List(organizationID, keyword, limit, cursor)
	if err != nil {
		return nil, apperr.Internal("查询桶列表失败", err)
	}
	return buckets, nil
}

// Update 修改桶的名称或可见性，要求可编辑角色。
// 可见性不做任何进程内缓存，修改后的下一次匿名请求立即生效。
func (s *bucketService) Update(bucketID uuid.UUID, name *string, visibility *model.BucketVisibility, actor uuid.UUID) (*model.Bucket, error) {
	bucket, access, err := s.requireBucketAccess(bucketID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权修改该桶")
	}

	if name != nil {
		bucket.Name = *name
	}
	if visibility != nil {
		if !visibility.Valid() {
			return nil, apperr.Forbidden("未知的可见性")
		}
		bucket.Visibility = *visibility
	}
	if err := s.bucketRepo.Update(bucket); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("桶名称已存在")
		}
		return nil, apperr.Internal("更新桶失败", err)
	}
	return bucket, nil
}

// Delete 删除桶：先在一个事务中删掉桶、文件夹和文件行，
// 提交后递归移除整个物理目录树，即使部分文件行早已被单独删除，
// 也不会留下孤儿字节。物理删除失败只记日志，不回滚数据库。
func (s *bucketService) Delete(bucketID, actor uuid.UUID) (*model.Bucket, error) {
	bucket, access, err := s.requireBucketAccess(bucketID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权删除该桶")
	}

	if err := s.bucketRepo.DeleteCascade(bucketID); err != nil {
		return nil, apperr.Internal("删除桶失败", err)
	}

	dir := s.store.BucketDir(access.Organization.Name, bucket.Name)
	if err := s.store.RemoveAll(dir); err != nil {
		log.Warnw("删除桶目录失败", "path", dir, "error", err)
	}
	return bucket, nil
}

// requireBucketAccess 从桶出发向上连到组织并做成员检查。
// 桶不存在与无成员身份对外是同一个 Forbidden，不泄露桶是否存在。
func (s *bucketService) requireBucketAccess(bucketID, actor uuid.UUID) (*model.Bucket, Access, error) {
	bucket, err := s.bucketRepo.FindByID(bucketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Access{}, apperr.Forbidden("无权访问该桶")
		}
		return nil, Access{}, apperr.Internal("查询桶失败", err)
	}

	access, err := s.orgService.ValidateAccess(bucket.OrganizationID, actor)
	if err != nil {
		return nil, Access{}, err
	}
	if !access.Allowed() {
		return nil, Access{}, apperr.Forbidden("无权访问该桶")
	}
	return bucket, access, nil
}
