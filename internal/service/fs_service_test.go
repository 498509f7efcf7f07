package service

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
	"filedock-go/pkg/signer"
)

// capability 为给定资源路径签出一条能力查询。
func capability(secret *model.OrganizationSecret, path string, expiry *int64, upload bool) CapabilityQuery {
	canonical := signer.CanonicalString(path, secret.ID, expiry, upload)
	return CapabilityQuery{
		SecretID:  secret.ID,
		Signature: signer.Sign(secret.Secret, canonical),
		Expiry:    expiry,
	}
}

// newFSEnv 建好 "组织 + 私有桶 + 密钥" 的匿名访问底座。
func newFSEnv(t *testing.T) (*testEnv, *model.User, *model.Bucket, *model.OrganizationSecret) {
	t.Helper()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	org, bucket := env.createOrgWithBucket(t, "acme", "media", alice)
	secret, err := env.orgService.CreateSecret(org.ID, alice.ID)
	require.NoError(t, err)
	return env, alice, bucket, secret
}

func TestSaveAndServeWithCapability(t *testing.T) {
	env, _, bucket, secret := newFSEnv(t)
	path := "acme/media/docs/a.txt"

	err := env.fsService.Save([]byte("hello"), "acme", "media", "docs/a.txt", capability(secret, path, nil, true))
	require.NoError(t, err)

	// 缺失的文件夹被按需创建，归属密钥创建者
	folderID, ok, err := env.folderRepo.FindPath(bucket.ID, "docs")
	require.NoError(t, err)
	require.True(t, ok)
	file, err := env.fileRepo.FindByFolderAndName(folderID, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, secret.CreatedBy, file.CreatedBy)

	phys, err := env.fsService.Serve("acme", "media", "docs/a.txt", capability(secret, path, nil, false))
	require.NoError(t, err)
	data, err := os.ReadFile(phys)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSaveOverwritesLastWriteWins(t *testing.T) {
	env, _, bucket, secret := newFSEnv(t)
	path := "acme/media/a.txt"
	q := capability(secret, path, nil, true)

	require.NoError(t, env.fsService.Save([]byte("first"), "acme", "media", "a.txt", q))
	require.NoError(t, env.fsService.Save([]byte("second"), "acme", "media", "a.txt", q))

	root, err := env.folderRepo.FindRoot(bucket.ID)
	require.NoError(t, err)
	file, err := env.fileRepo.FindByFolderAndName(root.ID, "a.txt")
	require.NoError(t, err)

	// 数据库身份保持稳定，只有一行
	var count int64
	require.NoError(t, env.db.Model(&model.File{}).Where("folder_id = ?", root.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	data, err := os.ReadFile(env.store.FilePath("acme", "media", "/", file.Name))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestServePrivateBucketRequiresSignature(t *testing.T) {
	env, _, _, secret := newFSEnv(t)
	path := "acme/media/a.txt"
	require.NoError(t, env.fsService.Save([]byte("x"), "acme", "media", "a.txt", capability(secret, path, nil, true)))

	// 无签名
	_, err := env.fsService.Serve("acme", "media", "a.txt", CapabilityQuery{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// 签名是别的路径签出来的
	other := capability(secret, "acme/media/b.txt", nil, false)
	_, err = env.fsService.Serve("acme", "media", "a.txt", other)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// 密钥 id 不存在与签名错误是同一个 Forbidden
	q := capability(secret, path, nil, false)
	q.SecretID = "0000000000000000"
	_, err = env.fsService.Serve("acme", "media", "a.txt", q)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestServePublicBucketSkipsVerification(t *testing.T) {
	env, alice, bucket, secret := newFSEnv(t)
	require.NoError(t, env.fsService.Save([]byte("x"), "acme", "media", "a.txt",
		capability(secret, "acme/media/a.txt", nil, true)))

	public := model.VisibilityPublic
	_, err := env.bucketService.Update(bucket.ID, nil, &public, alice.ID)
	require.NoError(t, err)

	// 公开桶的读取不需要任何签名参数
	phys, err := env.fsService.Serve("acme", "media", "a.txt", CapabilityQuery{})
	require.NoError(t, err)
	data, err := os.ReadFile(phys)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	// 写入不受可见性影响，仍然要求签名
	err = env.fsService.Save([]byte("y"), "acme", "media", "a.txt", CapabilityQuery{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestReadSignatureCannotUpload(t *testing.T) {
	env, _, _, secret := newFSEnv(t)
	path := "acme/media/a.txt"

	readOnly := capability(secret, path, nil, false)
	err := env.fsService.Save([]byte("x"), "acme", "media", "a.txt", readOnly)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = env.fsService.Remove("acme", "media", "a.txt", readOnly)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestExpiredCapability(t *testing.T) {
	env, _, _, secret := newFSEnv(t)
	path := "acme/media/a.txt"
	require.NoError(t, env.fsService.Save([]byte("x"), "acme", "media", "a.txt", capability(secret, path, nil, true)))

	// 签名本身有效，但有效期已过：先判过期，仍然拒绝
	past := time.Now().Add(-time.Hour).Unix()
	_, err := env.fsService.Serve("acme", "media", "a.txt", capability(secret, path, &past, false))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	future := time.Now().Add(time.Hour).Unix()
	_, err = env.fsService.Serve("acme", "media", "a.txt", capability(secret, path, &future, false))
	require.NoError(t, err)
}

func TestRevokedSecretInvalidatesURLs(t *testing.T) {
	env, alice, bucket, secret := newFSEnv(t)
	path := "acme/media/a.txt"
	q := capability(secret, path, nil, false)
	require.NoError(t, env.fsService.Save([]byte("x"), "acme", "media", "a.txt", capability(secret, path, nil, true)))
	_, err := env.fsService.Serve("acme", "media", "a.txt", q)
	require.NoError(t, err)

	require.NoError(t, env.orgService.DeleteSecret(secret.ID, bucket.OrganizationID, alice.ID))

	// 撤销立即生效
	_, err = env.fsService.Serve("acme", "media", "a.txt", q)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestRemoveFileViaCapability(t *testing.T) {
	env, _, _, secret := newFSEnv(t)
	path := "acme/media/docs/a.txt"
	require.NoError(t, env.fsService.Save([]byte("x"), "acme", "media", "docs/a.txt", capability(secret, path, nil, true)))

	require.NoError(t, env.fsService.Remove("acme", "media", "docs/a.txt", capability(secret, path, nil, true)))

	// 文件行与物理文件都已删除
	_, err := env.fsService.Serve("acme", "media", "docs/a.txt", capability(secret, path, nil, false))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.False(t, env.store.Exists(env.store.FilePath("acme", "media", "/docs/", "a.txt")))

	// 再删同一文件
	err = env.fsService.Remove("acme", "media", "docs/a.txt", capability(secret, path, nil, true))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUnknownOrgOrBucket(t *testing.T) {
	env, _, _, secret := newFSEnv(t)

	_, err := env.fsService.Serve("ghost", "media", "a.txt", capability(secret, "ghost/media/a.txt", nil, false))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.fsService.Serve("acme", "ghost", "a.txt", capability(secret, "acme/ghost/a.txt", nil, false))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
