package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"filedock-go/internal/model"
)

// FileRepository 接口定义了文件元数据的数据操作方法。
type FileRepository interface {
	Create(file *model.File) error
	// CreateIgnoreConflict 按 insert-or-ignore 语义插入：
	// (folder_id, name) 已存在时不报错，返回已存在的那一行。
	CreateIgnoreConflict(file *model.File) (*model.File, error)
	FindByID(id uuid.UUID) (*model.File, error)
	FindByFolderAndName(folderID uuid.UUID, name string) (*model.File, error)
	Search(folderID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.File, error)
	Delete(id uuid.UUID) error
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository 创建一个新的 FileRepository 实例。
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

// Create 在数据库中插入一条新的文件记录。
func (r *fileRepository) Create(file *model.File) error {
	return r.db.Create(file).Error
}

// CreateIgnoreConflict 幂等插入文件行。
// 能力签名保存用它：重复上传同名文件不报错，数据库身份保持不变，
// 物理内容随后由调用方按最后写入者胜覆盖。
func (r *fileRepository) CreateIgnoreConflict(file *model.File) (*model.File, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(file)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return r.FindByFolderAndName(file.FolderID, file.Name)
	}
	return file, nil
}

// FindByID 根据 id 查找文件。
func (r *fileRepository) FindByID(id uuid.UUID) (*model.File, error) {
	var file model.File
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// FindByFolderAndName 按 (文件夹, 名称) 查找文件，路径型访问使用它。
func (r *fileRepository) FindByFolderAndName(folderID uuid.UUID, name string) (*model.File, error) {
	var file model.File
	err := r.db.Where("folder_id = ? AND name = ?", folderID, name).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// Search 在文件夹内按关键词检索文件，id 游标分页。
func (r *fileRepository) Search(folderID uuid.UUID, keyword string, limit int, cursor *uuid.UUID) ([]model.File, error) {
	query := r.db.Where("folder_id = ?", folderID).Order("id")
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}
	if cursor != nil {
		query = query.Where("id > ?", *cursor)
	}

	var files []model.File
	err := query.Limit(limit).Find(&files).Error
	return files, err
}

// Delete 根据 id 删除文件记录。
func (r *fileRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.File{}).Error
}
