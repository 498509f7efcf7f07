// Package storage 提供物理文件树的访问能力。
// 物理树是数据库文件夹树的派生缓存：每个触碰任意一侧的变更操作
// 都负责让两者保持一致，数据库先行，文件系统随后。
package storage

import (
	"os"
	"path/filepath"
)

// LocalStorage 把 (组织名, 桶名, 已解析的文件夹路径, 叶子名) 映射为
// {root}/{organization}/{bucket}{folder path}{leaf} 形式的物理路径，
// 并执行与之配套的目录/文件操作。
type LocalStorage struct {
	root string
}

// New 创建一个以 root 为物理根目录的 LocalStorage。
func New(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// BucketDir 返回桶的物理根目录。
func (s *LocalStorage) BucketDir(orgName, bucketName string) string {
	return filepath.Join(s.root, orgName, bucketName)
}

// DirPath 返回文件夹的物理目录路径。
// folderPath 是 ResolvePath 产出的 "/a/b/" 形式（根文件夹为 "/"）。
func (s *LocalStorage) DirPath(orgName, bucketName, folderPath string) string {
	return s.BucketDir(orgName, bucketName) + folderPath
}

// FilePath 返回文件的物理路径。
func (s *LocalStorage) FilePath(orgName, bucketName, folderPath, fileName string) string {
	return s.DirPath(orgName, bucketName, folderPath) + fileName
}

// CreateBucketDir 为桶创建物理根目录，目录已存在不视为错误。
func (s *LocalStorage) CreateBucketDir(orgName, bucketName string) error {
	return os.MkdirAll(s.BucketDir(orgName, bucketName), os.ModePerm)
}

// CreateDir 创建目录及缺失的所有上级目录，幂等。
func (s *LocalStorage) CreateDir(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

// WriteFile 把字节写入指定路径，语义是最后写入者胜：
// 先无条件移除旧文件再写入，上级目录缺失时一并补齐。
func (s *LocalStorage) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	_ = os.Remove(path)
	return os.WriteFile(path, data, 0o644)
}

// RemoveFile 删除单个物理文件。
func (s *LocalStorage) RemoveFile(path string) error {
	return os.Remove(path)
}

// RemoveAll 递归删除整个物理子树，路径不存在时返回 nil。
func (s *LocalStorage) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Exists 报告路径是否存在。
func (s *LocalStorage) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
