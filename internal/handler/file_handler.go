package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"filedock-go/internal/service"
	"filedock-go/pkg/log"
)

// FileHandler 负责处理已认证用户的文件 API 请求。
type FileHandler struct {
	fileService service.FileService
}

// NewFileHandler 创建一个新的 FileHandler 实例。
func NewFileHandler(fileService service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload 处理 multipart 文件上传，文件写入 URL 指定的文件夹。
func (h *FileHandler) Upload(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	folderID, valid := pathUUID(c, "folderId")
	if !valid {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：缺少文件",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无法读取上传文件",
		})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无法读取上传文件",
		})
		return
	}

	file, err := h.fileService.Upload(data, folderID, fileHeader.Filename, user.ID)
	if err != nil {
		log.Warnf("Upload: failed for '%s', error: %v", fileHeader.Filename, err)
		fail(c, err)
		return
	}
	log.Infof("File '%s' uploaded to folder %s by '%s'", file.Name, folderID, user.Username)
	ok(c, file)
}

// Download 以附件形式返回文件内容。
func (h *FileHandler) Download(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	fileID, valid := pathUUID(c, "fileId")
	if !valid {
		return
	}

	file, phys, err := h.fileService.Download(fileID, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.FileAttachment(phys, file.Name)
}

// Search 在文件夹内按关键字搜索文件。
func (h *FileHandler) Search(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	folderID, valid := pathUUID(c, "folderId")
	if !valid {
		return
	}
	cursor, valid := queryCursor(c)
	if !valid {
		return
	}

	files, err := h.fileService.Search(folderID, c.Query("keyword"), queryLimit(c), cursor, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, files)
}

// Delete 删除文件。
func (h *FileHandler) Delete(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	fileID, valid := pathUUID(c, "fileId")
	if !valid {
		return
	}

	if err := h.fileService.Delete(fileID, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "文件已删除",
	})
}
