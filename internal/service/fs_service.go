package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
	"filedock-go/internal/repository"
	"filedock-go/pkg/log"
	"filedock-go/pkg/signer"
	"filedock-go/pkg/storage"
)

// CapabilityQuery 是能力 URL 携带的查询参数。
// Expiry 为 unix 秒，缺省表示永不过期。
type CapabilityQuery struct {
	SecretID  string
	Signature string
	Expiry    *int64
}

// FSService 接口定义了匿名的能力 URL 文件访问操作。
// 路径形如 /fs/{org}/{bucket}/{filePath}，身份完全由签名承载。
type FSService interface {
	Serve(orgName, bucketName, filePath string, q CapabilityQuery) (string, error)
	Save(data []byte, orgName, bucketName, filePath string, q CapabilityQuery) error
	Remove(orgName, bucketName, filePath string, q CapabilityQuery) error
}

type fsService struct {
	orgRepo    repository.OrganizationRepository
	bucketRepo repository.BucketRepository
	folderRepo repository.FolderRepository
	fileRepo   repository.FileRepository
	secretRepo repository.SecretRepository
	store      *storage.LocalStorage
}

// NewFSService 创建一个新的 FSService 实例。
func NewFSService(orgRepo repository.OrganizationRepository, bucketRepo repository.BucketRepository, folderRepo repository.FolderRepository, fileRepo repository.FileRepository, secretRepo repository.SecretRepository, store *storage.LocalStorage) FSService {
	return &fsService{
		orgRepo:    orgRepo,
		bucketRepo: bucketRepo,
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		secretRepo: secretRepo,
		store:      store,
	}
}

// Serve 返回待读取文件的物理路径。
// 公开桶的读取完全跳过签名校验，连 secret_id 都不需要；
// 私有桶必须带有效的只读签名。
func (s *fsService) Serve(orgName, bucketName, filePath string, q CapabilityQuery) (string, error) {
	org, bucket, err := s.resolveBucket(orgName, bucketName)
	if err != nil {
		return "", err
	}

	if bucket.Visibility != model.VisibilityPublic {
		if _, err := s.verifyCapability(org, orgName+"/"+bucketName+"/"+filePath, q, false); err != nil {
			return "", err
		}
	}

	dir, leaf := splitFilePath(filePath)
	if leaf == "" {
		return "", apperr.NotFound("文件不存在")
	}
	folderID, ok, err := s.folderRepo.FindPath(bucket.ID, dir)
	if err != nil {
		return "", apperr.Internal("解析文件夹路径失败", err)
	}
	if !ok {
		return "", apperr.NotFound("文件不存在")
	}
	file, err := s.fileRepo.FindByFolderAndName(folderID, leaf)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("文件不存在")
		}
		return "", apperr.Internal("查询文件失败", err)
	}

	folderPath, err := s.folderRepo.ResolvePath(folderID)
	if err != nil {
		return "", apperr.Internal("解析文件路径失败", err)
	}
	phys := s.store.FilePath(org.Name, bucket.Name, folderPath, file.Name)
	if !s.store.Exists(phys) {
		log.Warnw("文件行存在但物理文件缺失", "file_id", file.ID, "path", phys)
		return "", apperr.NotFound("文件不存在")
	}
	return phys, nil
}

// Save 通过能力 URL 写入文件，写操作与桶可见性无关，永远要求签名。
// 路径上缺失的文件夹会被按需创建；同名文件直接覆盖（last-write-wins）。
// 新建的行以密钥创建者为归属人。
func (s *fsService) Save(data []byte, orgName, bucketName, filePath string, q CapabilityQuery) error {
	org, bucket, err := s.resolveBucket(orgName, bucketName)
	if err != nil {
		return err
	}
	secret, err := s.verifyCapability(org, orgName+"/"+bucketName+"/"+filePath, q, true)
	if err != nil {
		return err
	}

	dir, leaf := splitFilePath(filePath)
	if leaf == "" {
		return apperr.NotFound("文件不存在")
	}
	folderID, err := s.folderRepo.EnsurePath(bucket.ID, dir, secret.CreatedBy)
	if err != nil {
		return apperr.Internal("创建文件夹路径失败", err)
	}

	file, err := s.fileRepo.CreateIgnoreConflict(&model.File{
		ID:        model.NewID(),
		Name:      leaf,
		FolderID:  folderID,
		CreatedBy: secret.CreatedBy,
	})
	if err != nil {
		return apperr.Internal("创建文件失败", err)
	}

	folderPath, err := s.folderRepo.ResolvePath(folderID)
	if err != nil {
		return apperr.Internal("解析文件路径失败", err)
	}
	phys := s.store.FilePath(org.Name, bucket.Name, folderPath, file.Name)
	if err := s.store.WriteFile(phys, data); err != nil {
		return apperr.Internal("写入文件失败", err)
	}
	return nil
}

// Remove 通过能力 URL 删除文件，签名要求与写入一致（upload=true）。
// 行先删，物理删除失败只记日志。
func (s *fsService) Remove(orgName, bucketName, filePath string, q CapabilityQuery) error {
	org, bucket, err := s.resolveBucket(orgName, bucketName)
	if err != nil {
		return err
	}
	if _, err := s.verifyCapability(org, orgName+"/"+bucketName+"/"+filePath, q, true); err != nil {
		return err
	}

	dir, leaf := splitFilePath(filePath)
	if leaf == "" {
		return apperr.NotFound("文件不存在")
	}
	folderID, ok, err := s.folderRepo.FindPath(bucket.ID, dir)
	if err != nil {
		return apperr.Internal("解析文件夹路径失败", err)
	}
	if !ok {
		return apperr.NotFound("文件不存在")
	}
	file, err := s.fileRepo.FindByFolderAndName(folderID, leaf)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("文件不存在")
		}
		return apperr.Internal("查询文件失败", err)
	}

	folderPath, pathErr := s.folderRepo.ResolvePath(folderID)

	if err := s.fileRepo.Delete(file.ID); err != nil {
		return apperr.Internal("删除文件失败", err)
	}

	if pathErr != nil {
		log.Warnw("解析文件路径失败，跳过物理删除", "file_id", file.ID, "error", pathErr)
		return nil
	}
	phys := s.store.FilePath(org.Name, bucket.Name, folderPath, file.Name)
	if err := s.store.RemoveFile(phys); err != nil {
		log.Warnw("删除物理文件失败", "path", phys, "error", err)
	}
	return nil
}

// resolveBucket 按名字解析组织和桶。名字都在 URL 里，
// 不存在就是普通的 404，没有可泄露的秘密。
func (s *fsService) resolveBucket(orgName, bucketName string) (*model.Organization, *model.Bucket, error) {
	org, err := s.orgRepo.FindByName(orgName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("资源不存在")
		}
		return nil, nil, apperr.Internal("查询组织失败", err)
	}
	bucket, err := s.bucketRepo.FindByName(org.ID, bucketName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("资源不存在")
		}
		return nil, nil, apperr.Internal("查询桶失败", err)
	}
	return org, bucket, nil
}

// verifyCapability 校验一条能力 URL。
// 密钥必须属于路径中的组织；过期判定先于签名校验，
// 密钥缺失与签名不匹配对外是同一个错误。
func (s *fsService) verifyCapability(org *model.Organization, path string, q CapabilityQuery, upload bool) (*model.OrganizationSecret, error) {
	secret, err := s.secretRepo.FindScoped(q.SecretID, org.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("签名无效")
		}
		return nil, apperr.Internal("查询密钥失败", err)
	}

	if signer.Expired(q.Expiry, time.Now()) {
		return nil, apperr.Forbidden("链接已过期")
	}

	canonical := signer.CanonicalString(path, q.SecretID, q.Expiry, upload)
	if !signer.Verify(secret.Secret, canonical, q.Signature) {
		return nil, apperr.Forbidden("签名无效")
	}
	return secret, nil
}

// splitFilePath 把 "a/b/c.txt" 拆成目录 "a/b" 和叶子 "c.txt"。
// 没有目录段时目录为空串，对应根文件夹。
func splitFilePath(filePath string) (dir, leaf string) {
	filePath = strings.Trim(filePath, "/")
	i := strings.LastIndex(filePath, "/")
	if i < 0 {
		return "", filePath
	}
	return filePath[:i], filePath[i+1:]
}
