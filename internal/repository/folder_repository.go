// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"filedock-go/internal/model"
)

// FolderRepository 接口定义了文件夹树的数据操作方法。
// 树只存父指针，路径按需向上遍历计算：移动/改名是 O(1)，
// 路径计算是 O(深度)，对浅树是合算的取舍。
type FolderRepository interface {
	Create(folder *model.Folder) error
	FindByID(id uuid.UUID) (*model.Folder, error)
	// FindRoot 返回桶的根文件夹（parent_id 为 NULL 的唯一一行）。
	FindRoot(bucketID uuid.UUID) (*model.Folder, error)
	// ResolvePath 自下而上走一次递归查询，返回 "/a/b/c/" 形式的路径。
	ResolvePath(folderID uuid.UUID) (string, error)
	// EnsurePath 逐段补齐 "a/b/c" 形式的相对路径并返回最深一层的 id，幂等。
	EnsurePath(bucketID uuid.UUID, path string, createdBy uuid.UUID) (uuid.UUID, error)
	// FindPath 是 EnsurePath 的只读版本；任一段不存在时 ok 为 false。
	FindPath(bucketID uuid.UUID, path string) (folderID uuid.UUID, ok bool, err error)
	ListEntries(folderID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, cursorKind string) ([]model.Entry, error)
	// DeleteSubtree 删除该文件夹及其全部后代文件夹和其中的文件行。
	DeleteSubtree(folderID uuid.UUID) error
}

type folderRepository struct {
	db *gorm.DB
}

// NewFolderRepository 创建一个新的 FolderRepository 实例。
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db}
}

// Create 在数据库中插入一条新的文件夹记录。
func (r *folderRepository) Create(folder *model.Folder) error {
	return r.db.Create(folder).Error
}

// FindByID 根据 id 查找一个文件夹。
func (r *folderRepository) FindByID(id uuid.UUID) (*model.Folder, error) {
	var folder model.Folder
	if err := r.db.Where("id = ?", id).First(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

// FindRoot 查找桶的根文件夹。
func (r *folderRepository) FindRoot(bucketID uuid.UUID) (*model.Folder, error) {
	var folder model.Folder
	err := r.db.Where("bucket_id = ? AND parent_id IS NULL", bucketID).First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// folderChainQuery 从给定文件夹出发沿父指针一路取到根，单次往返。
const folderChainQuery = `
WITH RECURSIVE folder_chain AS (
    SELECT id, name, parent_id FROM folders WHERE id = ?
    UNION ALL
    SELECT f.id, f.name, f.parent_id FROM folders f
    INNER JOIN folder_chain fc ON fc.parent_id = f.id
)
SELECT id, name, parent_id FROM folder_chain`

// ResolvePath 计算文件夹的斜杠分隔绝对路径。
// 查询结果自子向祖排列，倒序拼接后祖先在前；根文件夹名为空串，
// 不产生路径段，因此对根文件夹返回 "/"。
func (r *folderRepository) ResolvePath(folderID uuid.UUID) (string, error) {
	var chain []model.Folder
	if err := r.db.Raw(folderChainQuery, folderID).Scan(&chain).Error; err != nil {
		return "", err
	}
	if len(chain) == 0 {
		return "", gorm.ErrRecordNotFound
	}

	var b strings.Builder
	b.WriteString("/")
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Name == "" {
			continue
		}
		b.WriteString(chain[i].Name)
		b.WriteString("/")
	}
	return b.String(), nil
}

// SplitPath 把 "a/b/c" 形式的相对路径拆成路径段，忽略空段。
// 空路径返回空切片，表示桶的根文件夹。
func SplitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// EnsurePath 逐段查找或创建文件夹链。
// 并发创建同一路径时依赖 (bucket_id, parent_id, name) 的唯一索引：
// 插入采用 insert-or-ignore，没有写入行时改读竞争赢家的行，输者不报错。
func (r *folderRepository) EnsurePath(bucketID uuid.UUID, path string, createdBy uuid.UUID) (uuid.UUID, error) {
	root, err := r.FindRoot(bucketID)
	if err != nil {
		return uuid.Nil, err
	}

	current := root.ID
	for _, seg := range SplitPath(path) {
		var child model.Folder
		err := r.db.Where("bucket_id = ? AND parent_id = ? AND name = ?", bucketID, current, seg).
			First(&child).Error
		if err == nil {
			current = child.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, err
		}

		parent := current
		folder := model.Folder{
			ID:        model.NewID(),
			Name:      seg,
			BucketID:  bucketID,
			ParentID:  &parent,
			CreatedBy: createdBy,
		}
		res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&folder)
		if res.Error != nil {
			return uuid.Nil, res.Error
		}
		if res.RowsAffected == 0 {
			// 竞争输了：赢家已插入同名行，读它
			if err := r.db.Where("bucket_id = ? AND parent_id = ? AND name = ?", bucketID, current, seg).
				First(&child).Error; err != nil {
				return uuid.Nil, err
			}
			current = child.ID
			continue
		}
		current = folder.ID
	}
	return current, nil
}

// FindPath 只读地沿路径段下行；任一段缺失即返回 ok=false，不创建任何行。
func (r *folderRepository) FindPath(bucketID uuid.UUID, path string) (uuid.UUID, bool, error) {
	root, err := r.FindRoot(bucketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	current := root.ID
	for _, seg := range SplitPath(path) {
		var child model.Folder
		err := r.db.Where("bucket_id = ? AND parent_id = ? AND name = ?", bucketID, current, seg).
			First(&child).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, nil
		}
		if err != nil {
			return uuid.Nil, false, err
		}
		current = child.ID
	}
	return current, true, nil
}

// ListEntries 统一列出文件夹下的子文件夹与文件，文件夹在前。
// 游标按 (kind, id) 降序推进：kind 为 "folder" 时文件夹从游标之后取、
// 文件全取；kind 为 "file" 时文件夹已经取完，只取文件。
func (r *folderRepository) ListEntries(folderID uuid.UUID, keyword string, limit int, cursor *uuid.UUID, cursorKind string) ([]model.Entry, error) {
	folderCond := ""
	fileCond := ""
	args := []interface{}{folderID}

	if cursorKind == "folder" && cursor != nil {
		folderCond = "AND folders.id < ?"
		args = append(args, *cursor)
	} else if cursorKind == "file" {
		folderCond = "AND 1 = 0"
	}
	args = append(args, "%"+keyword+"%", folderID)
	if cursorKind == "file" && cursor != nil {
		fileCond = "AND files.id < ?"
		args = append(args, *cursor)
	}
	args = append(args, "%"+keyword+"%", limit)

	query := `
SELECT folders.id AS id, folders.name AS name, 'folder' AS kind,
       folders.created_at AS created_at, folders.created_by AS created_by,
       users.name AS user_name, users.email AS user_email
FROM folders
LEFT JOIN users ON users.id = folders.created_by
WHERE folders.parent_id = ? ` + folderCond + ` AND folders.name ILIKE ?

UNION ALL

SELECT files.id AS id, files.name AS name, 'file' AS kind,
       files.created_at AS created_at, files.created_by AS created_by,
       users.name AS user_name, users.email AS user_email
FROM files
LEFT JOIN users ON users.id = files.created_by
WHERE files.folder_id = ? ` + fileCond + ` AND files.name ILIKE ?

ORDER BY kind DESC, id DESC
LIMIT ?`

	var entries []model.Entry
	if err := r.db.Raw(query, args...).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

const folderSubtreeQuery = `
WITH RECURSIVE subtree AS (
    SELECT id FROM folders WHERE id = ?
    UNION ALL
    SELECT f.id FROM folders f
    INNER JOIN subtree s ON f.parent_id = s.id
)
SELECT id FROM subtree`

// DeleteSubtree 在一个事务中删除整棵子树的文件行和文件夹行。
// 物理子树的删除由调用方在事务提交后执行。
func (r *folderRepository) DeleteSubtree(folderID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM files WHERE folder_id IN ("+folderSubtreeQuery+")", folderID).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM folders WHERE id IN ("+folderSubtreeQuery+")", folderID).Error
	})
}
