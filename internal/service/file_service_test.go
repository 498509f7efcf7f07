package service

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
)

func TestUploadAndDownload(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	_, bucket := env.createOrgWithBucket(t, "acme", "media", alice)
	folderID, err := env.folderRepo.EnsurePath(bucket.ID, "docs", alice.ID)
	require.NoError(t, err)

	file, err := env.fileService.Upload([]byte("hello"), folderID, "a.txt", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, file.CreatedBy)

	got, phys, err := env.fileService.Download(file.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	data, err := os.ReadFile(phys)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestUploadDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	_, bucket := env.createOrgWithBucket(t, "acme", "media", alice)
	folderID, err := env.folderRepo.EnsurePath(bucket.ID, "docs", alice.ID)
	require.NoError(t, err)

	_, err = env.fileService.Upload([]byte("one"), folderID, "a.txt", alice.ID)
	require.NoError(t, err)
	_, err = env.fileService.Upload([]byte("two"), folderID, "a.txt", alice.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUploadRequiresEditableRole(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	commenter := env.createUser(t, "carol")
	org, bucket := env.createOrgWithBucket(t, "acme", "media", alice)
	_, err := env.orgService.AddMember(org.ID, commenter.ID, model.RoleCommenter, alice.ID)
	require.NoError(t, err)
	root, err := env.folderRepo.FindRoot(bucket.ID)
	require.NoError(t, err)

	_, err = env.fileService.Upload([]byte("x"), root.ID, "a.txt", commenter.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// COMMENTER 仍然可以读
	file, err := env.fileService.Upload([]byte("x"), root.ID, "a.txt", alice.ID)
	require.NoError(t, err)
	_, _, err = env.fileService.Download(file.ID, commenter.ID)
	require.NoError(t, err)
}

func TestDownloadForbiddenForOutsider(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	mallory := env.createUser(t, "mallory")
	_, bucket := env.createOrgWithBucket(t, "acme", "media", alice)
	root, err := env.folderRepo.FindRoot(bucket.ID)
	require.NoError(t, err)
	file, err := env.fileService.Upload([]byte("x"), root.ID, "a.txt", alice.ID)
	require.NoError(t, err)

	// 非成员与文件不存在是同一个 Forbidden
	_, _, err = env.fileService.Download(file.ID, mallory.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, _, err = env.fileService.Download(model.NewID(), alice.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	_, bucket := env.createOrgWithBucket(t, "acme", "media", alice)
	root, err := env.folderRepo.FindRoot(bucket.ID)
	require.NoError(t, err)
	file, err := env.fileService.Upload([]byte("x"), root.ID, "a.txt", alice.ID)
	require.NoError(t, err)
	phys := env.store.FilePath("acme", "media", "/", "a.txt")
	require.True(t, env.store.Exists(phys))

	require.NoError(t, env.fileService.Delete(file.ID, alice.ID))

	_, err = env.fileRepo.FindByID(file.ID)
	assert.Error(t, err)
	assert.False(t, env.store.Exists(phys))
}
