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

// FileService 接口定义了已认证用户的文件操作。
type FileService interface {
	Upload(data []byte, folderID uuid.UUID, fileName string, actor uuid.UUID) (*model.File, error)
	Download(fileID, actor uuid.UUID) (*model.File, string, error)
	Search(folderID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, actor uuid.UUID) ([]model.File, error)
	Delete(fileID, actor uuid.UUID) error
}

type fileService struct {
	fileRepo   repository.FileRepository
	folderRepo repository.FolderRepository
	bucketRepo repository.BucketRepository
	orgService OrganizationService
	store      *storage.LocalStorage
}

// NewFileService 创建一个新的 FileService 实例。
func NewFileService(fileRepo repository.FileRepository, folderRepo repository.FolderRepository, bucketRepo repository.BucketRepository, orgService OrganizationService, store *storage.LocalStorage) FileService {
	return &fileService{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		bucketRepo: bucketRepo,
		orgService: orgService,
		store:      store,
	}
}

// Upload 向指定文件夹上传文件，要求可编辑角色。
// 先落库后写字节：行已提交而写盘失败会留下无字节的文件行，
// 属于已接受的漂移，只记日志不回滚。
func (s *fileService) Upload(data []byte, folderID uuid.UUID, fileName string, actor uuid.UUID) (*model.File, error) {
	folder, bucket, access, err := s.resolveFolder(folderID, actor)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit() {
		return nil, apperr.Forbidden("无权修改该桶")
	}

	file := &model.File{
		ID:        model.NewID(),
		Name:      fileName,
		FolderID:  folder.ID,
		CreatedBy: actor,
	}
	if err := s.fileRepo.Create(file); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("同名文件已存在")
		}
		return nil, apperr.Internal("创建文件失败", err)
	}

	folderPath, err := s.folderRepo.ResolvePath(folder.ID)
	if err != nil {
		return nil, apperr.Internal("解析文件路径失败", err)
	}
	phys := s.store.FilePath(access.Organization.Name, bucket.Name, folderPath, file.Name)
	if err := s.store.WriteFile(phys, data); err != nil {
		log.Warnw("写入文件内容失败", "path", phys, "error", err)
		return nil, apperr.Internal("写入文件失败", err)
	}
	return file, nil
}

// Download 返回文件行及其物理路径，要求成员身份。
func (s *fileService) Download(fileID, actor uuid.UUID) (*model.File, string, error) {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.Forbidden("无权访问该文件")
		}
		return nil, "", apperr.Internal("查询文件失败", err)
	}

	folder, bucket, access, err := s.resolveFolder(file.FolderID, actor)
	if err != nil {
		return nil, "", err
	}

	folderPath, err := s.folderRepo.ResolvePath(folder.ID)
	if err != nil {
		return nil, "", apperr.Internal("解析文件路径失败", err)
	}
	phys := s.store.FilePath(access.Organization.Name, bucket.Name, folderPath, file.Name)
	if !s.store.Exists(phys) {
		// 行存在但字节缺失：漂移的另一半，对下载方呈现为内部错误
		log.Warnw("文件行存在但物理文件缺失", "file_id", file.ID, "path", phys)
		return nil, "", apperr.Internal("文件内容不可用", nil)
	}
	return file, phys, nil
}

// Search 在文件夹内按关键字搜索文件，要求成员身份。
func (s *fileService) Search(folderID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, actor uuid.UUID) ([]model.File, error) {
	_, _, _, err := s.resolveFolder(folderID, actor)
	if err != nil {
		return nil, err
	}
	files, err := s.fileRepo.Search(folderID, keyword, limit, cursor)
	if err != nil {
		return nil, apperr.Internal("搜索文件失败", err)
	}
	return files, nil
}

// Delete 删除文件，要求可编辑角色。
// 数据库行先删，物理文件在提交后移除，失败只记日志。
func (s *fileService) Delete(fileID, actor uuid.UUID) error {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Forbidden("无权访问该文件")
		}
		return apperr.Internal("查询文件失败", err)
	}

	folder, bucket, access, err := s.resolveFolder(file.FolderID, actor)
	if err != nil {
		return err
	}
	if !access.CanEdit() {
		return apperr.Forbidden("无权修改该桶")
	}

	folderPath, pathErr := s.folderRepo.ResolvePath(folder.ID)

	if err := s.fileRepo.Delete(file.ID); err != nil {
		return apperr.Internal("删除文件失败", err)
	}

	if pathErr != nil {
		log.Warnw("解析文件路径失败，跳过物理删除", "file_id", file.ID, "error", pathErr)
		return nil
	}
	phys := s.store.FilePath(access.Organization.Name, bucket.Name, folderPath, file.Name)
	if err := s.store.RemoveFile(phys); err != nil {
		log.Warnw("删除物理文件失败", "path", phys, "error", err)
	}
	return nil
}

// resolveFolder 从文件夹出发连到桶和组织，并做成员检查。
func (s *fileService) resolveFolder(folderID, actor uuid.UUID) (*model.Folder, *model.Bucket, Access, error) {
	folder, err := s.folderRepo.FindByID(folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, Access{}, apperr.Forbidden("无权访问该文件夹")
		}
		return nil, nil, Access{}, apperr.Internal("查询文件夹失败", err)
	}
	bucket, err := s.bucketRepo.FindByID(folder.BucketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, Access{}, apperr.Forbidden("无权访问该桶")
		}
		return nil, nil, Access{}, apperr.Internal("查询桶失败", err)
	}
	access, err := s.orgService.ValidateAccess(bucket.OrganizationID, actor)
	if err != nil {
		return nil, nil, Access{}, err
	}
	if !access.Allowed() {
		return nil, nil, Access{}, apperr.Forbidden("无权访问该桶")
	}
	return folder, bucket, access, nil
}
