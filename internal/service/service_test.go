package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"filedock-go/internal/model"
	"filedock-go/internal/repository"
	"filedock-go/pkg/database"
	"filedock-go/pkg/signer"
	"filedock-go/pkg/storage"
)

// testEnv 把全部服务装配在内存 SQLite 与临时目录之上。
type testEnv struct {
	db    *gorm.DB
	store *storage.LocalStorage

	userRepo   repository.UserRepository
	orgRepo    repository.OrganizationRepository
	bucketRepo repository.BucketRepository
	folderRepo repository.FolderRepository
	fileRepo   repository.FileRepository
	secretRepo repository.SecretRepository

	orgService    OrganizationService
	bucketService BucketService
	folderService FolderService
	fileService   FileService
	fsService     FSService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:         db,
		store:      storage.New(t.TempDir()),
		userRepo:   repository.NewUserRepository(db),
		orgRepo:    repository.NewOrganizationRepository(db),
		bucketRepo: repository.NewBucketRepository(db),
		folderRepo: repository.NewFolderRepository(db),
		fileRepo:   repository.NewFileRepository(db),
		secretRepo: repository.NewSecretRepository(db),
	}
	env.orgService = NewOrganizationService(env.orgRepo, env.userRepo, env.secretRepo, signer.Verify)
	env.bucketService = NewBucketService(env.bucketRepo, env.orgService, env.store)
	env.folderService = NewFolderService(env.folderRepo, env.bucketRepo, env.orgService, env.store)
	env.fileService = NewFileService(env.fileRepo, env.folderRepo, env.bucketRepo, env.orgService, env.store)
	env.fsService = NewFSService(env.orgRepo, env.bucketRepo, env.folderRepo, env.fileRepo, env.secretRepo, env.store)
	return env
}

// createUser 插入一个用户并返回它。
func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		ID:       model.NewID(),
		Name:     username,
		Email:    username + "@example.com",
		Username: username,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

// createOrgWithBucket 建好 "组织 + 桶" 的常用底座：owner 创建组织和桶。
func (e *testEnv) createOrgWithBucket(t *testing.T, orgName, bucketName string, owner *model.User) (*model.Organization, *model.Bucket) {
	t.Helper()
	org, err := e.orgService.Create(orgName, owner.ID)
	require.NoError(t, err)
	bucket, err := e.bucketService.Create(bucketName, org.ID, owner.ID)
	require.NoError(t, err)
	return org, bucket
}
