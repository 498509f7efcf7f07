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

// FolderService 接口定义了文件夹的业务操作。
type FolderService interface {
	Create(name string, bucketID, parentID, actor uuid.UUID) (*model.Folder, error)
	List(bucketID uuid.UUID, folderID *uuid.UUID, keyword string, limit int, cursor *uuid.UUID, cursorKind string, actor uuid.UUID) (*model.Folder, []model.Entry, error)
	Delete(folderID, actor uuid.UUID) error
}

type folderService struct {
	folderRepo repository.FolderRepository
	bucketRepo repository.BucketRepository
	orgService OrganizationService
	store      *storage.LocalStorage
}

// NewFolderService 创建一个新的 FolderService 实例。
func NewFolderService(folderRepo repository.FolderRepository, bucketRepo repository.BucketRepository, orgService OrganizationService, store *storage.LocalStorage) FolderService {
	return &folderService{
		folderRepo: folderRepo,
		bucketRepo: bucketRepo,
		orgService: orgService,
		store:      store,
	}
}

// Create 在指定父文件夹下创建子文件夹，要求可编辑角色。
// 父文件夹必须属于同一个桶，防止把子树挂到别的桶下。
func (s *folderService) Create(name string, bucketID, parentID, actor uuid.UUID) (*model.Folder, error) {
	bucket, access, err := s.requireBucket(bucketID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权修改该桶")
	}

	parent, err := s.folderRepo.FindByID(parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("父文件夹不存在")
		}
		return nil, apperr.Internal("查询父文件夹失败", err)
	}
	if parent.BucketID != bucketID {
		return nil, apperr.Forbidden("父文件夹不在该桶中")
	}

	folder := &model.Folder{
		ID:        model.NewID(),
		Name:      name,
		BucketID:  bucketID,
		ParentID:  &parent.ID,
		CreatedBy: actor,
	}
	if err := s.folderRepo.Create(folder); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("同名文件夹已存在")
		}
		return nil, apperr.Internal("创建文件夹失败", err)
	}

	// 物理目录是尽力而为的：路径写操作随时可以按需重建缺失的目录
	folderPath, err := s.folderRepo.ResolvePath(folder.ID)
	if err != nil {
		log.Warnw("解析文件夹路径失败", "folder_id", folder.ID, "error", err)
		return folder, nil
	}
	dir := s.store.DirPath(access.Organization.Name, bucket.Name, folderPath)
	if err := s.store.CreateDir(dir); err != nil {
		log.Warnw("创建文件夹目录失败", "path", dir, "error", err)
	}
	return folder, nil
}

// List 列出文件夹下的直接子项（文件夹在前，文件在后），要求成员身份。
// folderID 为空时列出根文件夹。
func (s *folderService) List(bucketID uuid.UUID, folderID *uuid.UUID, keyword string, limit int, cursor *uuid.UUID, cursorKind string, actor uuid.UUID) (*model.Folder, []model.Entry, error) {
	_, _, err := s.requireBucket(bucketID, actor)
	if err != nil {
		return nil, nil, err
	}

	var folder *model.Folder
	if folderID == nil {
		folder, err = s.folderRepo.FindRoot(bucketID)
	} else {
		folder, err = s.folderRepo.FindByID(*folderID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Forbidden("文件夹不存在")
		}
		return nil, nil, apperr.Internal("查询文件夹失败", err)
	}
	if folder.BucketID != bucketID {
		return nil, nil, apperr.Forbidden("文件夹不在该桶中")
	}

	entries, err := s.folderRepo.ListEntries(folder.ID, keyword, limit, cursor, cursorKind)
	if err != nil {
		return nil, nil, apperr.Internal("查询文件夹内容失败", err)
	}
	return folder, entries, nil
}

// Delete 删除文件夹及其整个子树，要求可编辑角色。
// 根文件夹与桶同生共死，不允许单独删除。
// 数据库行先删，物理子树在提交后移除，失败只记日志。
func (s *folderService) Delete(folderID, actor uuid.UUID) error {
	folder, err := s.folderRepo.FindByID(folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Forbidden("无权访问该文件夹")
		}
		return apperr.Internal("查询文件夹失败", err)
	}
	if folder.ParentID == nil {
		return apperr.Forbidden("不能删除根文件夹")
	}

	bucket, access, err := s.requireBucket(folder.BucketID, actor)
	if err != nil {
		return err
	}
	if !access.CanEdit() {
		return apperr.Forbidden("无权修改该桶")
	}

	// 删行之前先解析路径，行删掉之后链就断了
	folderPath, pathErr := s.folderRepo.ResolvePath(folder.ID)

	if err := s.folderRepo.DeleteSubtree(folder.ID); err != nil {
		return apperr.Internal("删除文件夹失败", err)
	}

	if pathErr != nil {
		log.Warnw("解析文件夹路径失败，跳过物理删除", "folder_id", folder.ID, "error", pathErr)
		return nil
	}
	dir := s.store.DirPath(access.Organization.Name, bucket.Name, folderPath)
	if err := s.store.RemoveAll(dir); err != nil {
		log.Warnw("删除文件夹目录失败", "path", dir, "error", err)
	}
	return nil
}

// requireBucket 解析桶并做成员检查，不存在与无权限合并为 Forbidden。
func (s *folderService) requireBucket(bucketID, actor uuid.UUID) (*model.Bucket, Access, error) {
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
