package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filedock-go/internal/model"
	"filedock-go/internal/service"
	"filedock-go/pkg/log"
)

// BucketHandler 负责处理桶相关的 API 请求。
type BucketHandler struct {
	bucketService service.BucketService
}

// NewBucketHandler 创建一个新的 BucketHandler 实例。
func NewBucketHandler(bucketService service.BucketService) *BucketHandler {
	return &BucketHandler{bucketService: bucketService}
}

// CreateBucketRequest 定义了创建桶 API 的请求体结构。
type CreateBucketRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create 在组织下创建桶，新桶默认私有。
func (h *BucketHandler) Create(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}

	var req CreateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：桶名称不能为空",
		})
		return
	}

	bucket, err := h.bucketService.Create(req.Name, orgID, user.ID)
	if err != nil {
		log.Warnf("CreateBucket: failed for '%s', error: %v", req.Name, err)
		fail(c, err)
		return
	}
	log.Infof("Bucket '%s' created in organization %s", bucket.Name, orgID)
	ok(c, bucket)
}

// List 列出组织下的桶。
func (h *BucketHandler) List(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}
	cursor, valid := queryCursor(c)
	if !valid {
		return
	}

	buckets, err := h.bucketService.List(orgID, c.Query("keyword"), queryLimit(c), cursor, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, buckets)
}

// UpdateBucketRequest 定义了修改桶 API 的请求体结构，两个字段均可选。
type UpdateBucketRequest struct {
	Name       *string                 `json:"name"`
	Visibility *model.BucketVisibility `json:"visibility"`
}

// Update 修改桶的名称或可见性。
func (h *BucketHandler) Update(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	bucketID, valid := pathUUID(c, "bucketId")
	if !valid {
		return
	}

	var req UpdateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	bucket, err := h.bucketService.Update(bucketID, req.Name, req.Visibility, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, bucket)
}

// Delete 删除桶及其全部内容。
func (h *BucketHandler) Delete(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	bucketID, valid := pathUUID(c, "bucketId")
	if !valid {
		return
	}

	bucket, err := h.bucketService.Delete(bucketID, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	log.Infof("Bucket '%s' deleted by '%s'", bucket.Name, user.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "桶已删除",
	})
}
