package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"filedock-go/internal/service"
	"filedock-go/pkg/log"
)

// FolderHandler 负责处理文件夹相关的 API 请求。
type FolderHandler struct {
	folderService service.FolderService
}

// NewFolderHandler 创建一个新的 FolderHandler 实例。
func NewFolderHandler(folderService service.FolderService) *FolderHandler {
	return &FolderHandler{folderService: folderService}
}

// CreateFolderRequest 定义了创建文件夹 API 的请求体结构。
type CreateFolderRequest struct {
	Name     string    `json:"name" binding:"required"`
	ParentID uuid.UUID `json:"parentId" binding:"required"`
}

// Create 在指定父文件夹下创建子文件夹。
func (h *FolderHandler) Create(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	bucketID, valid := pathUUID(c, "bucketId")
	if !valid {
		return
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：名称与父文件夹不能为空",
		})
		return
	}

	folder, err := h.folderService.Create(req.Name, bucketID, req.ParentID, user.ID)
	if err != nil {
		log.Warnf("CreateFolder: failed for '%s', error: %v", req.Name, err)
		fail(c, err)
		return
	}
	ok(c, folder)
}

// List 列出文件夹的直接子项。
// folder_id 缺省时列出根文件夹；cursor 与 cursor_kind 一起构成续读游标。
func (h *FolderHandler) List(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	bucketID, valid := pathUUID(c, "bucketId")
	if !valid {
		return
	}

	var folderID *uuid.UUID
	if raw := c.Query("folder_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "无效的 folder_id",
			})
			return
		}
		folderID = &id
	}
	cursor, valid := queryCursor(c)
	if !valid {
		return
	}

	folder, entries, err := h.folderService.List(bucketID, folderID, c.Query("keyword"), queryLimit(c), cursor, c.Query("cursor_kind"), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"folder":  folder,
		"entries": entries,
	})
}

// Delete 删除文件夹及其整个子树。
func (h *FolderHandler) Delete(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	folderID, valid := pathUUID(c, "folderId")
	if !valid {
		return
	}

	if err := h.folderService.Delete(folderID, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "文件夹已删除",
	})
}
