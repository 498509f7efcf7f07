package repository

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"filedock-go/internal/model"
	"filedock-go/pkg/database"
)

// newTestDB 打开一个独立的内存 SQLite 库并建表。
// 连接数限制为 1，避免每个连接各见一个空库。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

// seedBucket 插入一个带根文件夹的桶，返回两者。
func seedBucket(t *testing.T, db *gorm.DB) (*model.Bucket, *model.Folder) {
	t.Helper()
	bucket := &model.Bucket{
		ID:             model.NewID(),
		Name:           "media",
		OrganizationID: model.NewID(),
		CreatedBy:      model.NewID(),
		Visibility:     model.VisibilityPrivate,
	}
	require.NoError(t, db.Create(bucket).Error)
	root := &model.Folder{
		ID:        model.NewID(),
		Name:      "",
		BucketID:  bucket.ID,
		CreatedBy: bucket.CreatedBy,
	}
	require.NoError(t, db.Create(root).Error)
	return bucket, root
}

func TestFindRoot(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, root := seedBucket(t, db)

	found, err := repo.FindRoot(bucket.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, found.ID)

	_, err = repo.FindRoot(model.NewID())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, SplitPath(""))
	assert.Nil(t, SplitPath("/"))
	assert.Equal(t, []string{"a"}, SplitPath("a"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitPath("a/b/c"))
	assert.Equal(t, []string{"a", "b"}, SplitPath("/a//b/"))
}

func TestEnsurePathCreatesChain(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, root := seedBucket(t, db)
	user := model.NewID()

	leaf, err := repo.EnsurePath(bucket.ID, "a/b/c", user)
	require.NoError(t, err)

	path, err := repo.ResolvePath(leaf)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c/", path)

	// 根 + 三段
	var count int64
	require.NoError(t, db.Model(&model.Folder{}).Where("bucket_id = ?", bucket.ID).Count(&count).Error)
	assert.EqualValues(t, 4, count)

	// 空路径直接返回根
	got, err := repo.EnsurePath(bucket.ID, "", user)
	require.NoError(t, err)
	assert.Equal(t, root.ID, got)
}

func TestEnsurePathIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, _ := seedBucket(t, db)
	user := model.NewID()

	first, err := repo.EnsurePath(bucket.ID, "a/b", user)
	require.NoError(t, err)
	second, err := repo.EnsurePath(bucket.ID, "a/b", user)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// 公共前缀被复用，只有新的尾段被创建
	deeper, err := repo.EnsurePath(bucket.ID, "a/b/c", user)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&model.Folder{}).Where("bucket_id = ?", bucket.ID).Count(&count).Error)
	assert.EqualValues(t, 4, count)

	path, err := repo.ResolvePath(deeper)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c/", path)
}

func TestEnsurePathConcurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, _ := seedBucket(t, db)
	user := model.NewID()

	const workers = 8
	results := make([]struct {
		id  uuid.UUID
		err error
	}, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.EnsurePath(bucket.ID, "a/b/c", user)
			results[i].id = id
			results[i].err = err
		}(i)
	}
	wg.Wait()

	// 竞争输掉的一方按成功处理，所有调用者拿到同一个叶子 id
	require.NoError(t, results[0].err)
	for _, r := range results[1:] {
		require.NoError(t, r.err)
		assert.Equal(t, results[0].id, r.id)
	}

	// 每个路径段恰好一行：根 + 三段
	var count int64
	require.NoError(t, db.Model(&model.Folder{}).Where("bucket_id = ?", bucket.ID).Count(&count).Error)
	assert.EqualValues(t, 4, count)
}

func TestEnsurePathSameNameDifferentParents(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, _ := seedBucket(t, db)
	user := model.NewID()

	left, err := repo.EnsurePath(bucket.ID, "a/sub", user)
	require.NoError(t, err)
	right, err := repo.EnsurePath(bucket.ID, "b/sub", user)
	require.NoError(t, err)

	// 名字相同但父不同的文件夹是两个节点
	assert.NotEqual(t, left, right)

	leftPath, err := repo.ResolvePath(left)
	require.NoError(t, err)
	rightPath, err := repo.ResolvePath(right)
	require.NoError(t, err)
	assert.Equal(t, "/a/sub/", leftPath)
	assert.Equal(t, "/b/sub/", rightPath)
}

func TestFindPath(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, root := seedBucket(t, db)
	user := model.NewID()

	leaf, err := repo.EnsurePath(bucket.ID, "a/b", user)
	require.NoError(t, err)

	got, ok, err := repo.FindPath(bucket.ID, "a/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, leaf, got)

	// 空路径解析到根
	got, ok, err = repo.FindPath(bucket.ID, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root.ID, got)

	// 任一段缺失即 ok=false，且不创建任何行
	_, ok, err = repo.FindPath(bucket.ID, "a/missing")
	require.NoError(t, err)
	assert.False(t, ok)
	var count int64
	require.NoError(t, db.Model(&model.Folder{}).Where("bucket_id = ?", bucket.ID).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	// 桶不存在同样是 ok=false 而不是错误
	_, ok, err = repo.FindPath(model.NewID(), "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolvePath(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	_, root := seedBucket(t, db)

	path, err := repo.ResolvePath(root.ID)
	require.NoError(t, err)
	assert.Equal(t, "/", path, "根文件夹名为空串，不产生路径段")

	_, err = repo.ResolvePath(model.NewID())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteSubtree(t *testing.T) {
	db := newTestDB(t)
	repo := NewFolderRepository(db)
	bucket, root := seedBucket(t, db)
	user := model.NewID()

	inner, err := repo.EnsurePath(bucket.ID, "a/b", user)
	require.NoError(t, err)
	sibling, err := repo.EnsurePath(bucket.ID, "c", user)
	require.NoError(t, err)

	file := &model.File{ID: model.NewID(), Name: "doc.txt", FolderID: inner, CreatedBy: user}
	require.NoError(t, db.Create(file).Error)

	top, ok, err := repo.FindPath(bucket.ID, "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.DeleteSubtree(top))

	// a、a/b 及其中的文件行都被删除
	var folderCount int64
	require.NoError(t, db.Model(&model.Folder{}).Where("bucket_id = ?", bucket.ID).Count(&folderCount).Error)
	assert.EqualValues(t, 2, folderCount) // 根 + c

	var fileCount int64
	require.NoError(t, db.Model(&model.File{}).Where("folder_id = ?", inner).Count(&fileCount).Error)
	assert.EqualValues(t, 0, fileCount)

	// 旁系不受影响
	_, err = repo.FindByID(sibling)
	require.NoError(t, err)
	_, err = repo.FindByID(root.ID)
	require.NoError(t, err)
}
