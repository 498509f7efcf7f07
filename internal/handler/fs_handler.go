package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"filedock-go/internal/service"
	"filedock-go/pkg/log"
)

// FSHandler 负责处理匿名的能力 URL 文件访问。
// 路由形如 /fs/:orgName/:bucketName/*filePath，不经过认证中间件，
// 身份完全由查询参数里的签名承载。
type FSHandler struct {
	fsService service.FSService
}

// NewFSHandler 创建一个新的 FSHandler 实例。
func NewFSHandler(fsService service.FSService) *FSHandler {
	return &FSHandler{fsService: fsService}
}

// capabilityQuery 从查询参数中解析签名三元组。
// expiry 必须是合法的 unix 秒，否则签名校验注定失败，直接拒绝。
func capabilityQuery(c *gin.Context) (service.CapabilityQuery, bool) {
	q := service.CapabilityQuery{
		SecretID:  c.Query("secret_id"),
		Signature: c.Query("signature"),
	}
	if raw := c.Query("expiry"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "无效的 expiry",
			})
			return q, false
		}
		q.Expiry = &v
	}
	return q, true
}

// filePath 取出通配路径参数并去掉前导斜杠，
// 与签名规范串中的资源路径保持一致。
func filePath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("filePath"), "/")
}

// Serve 读取文件。公开桶不需要任何签名参数。
func (h *FSHandler) Serve(c *gin.Context) {
	q, valid := capabilityQuery(c)
	if !valid {
		return
	}

	phys, err := h.fsService.Serve(c.Param("orgName"), c.Param("bucketName"), filePath(c), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.File(phys)
}

// Save 写入文件，请求体就是文件的原始字节。
func (h *FSHandler) Save(c *gin.Context) {
	q, valid := capabilityQuery(c)
	if !valid {
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无法读取请求体",
		})
		return
	}

	path := filePath(c)
	if err := h.fsService.Save(data, c.Param("orgName"), c.Param("bucketName"), path, q); err != nil {
		log.Warnf("FS Save: failed for '%s', error: %v", path, err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// Remove 删除文件。
func (h *FSHandler) Remove(c *gin.Context) {
	q, valid := capabilityQuery(c)
	if !valid {
		return
	}

	if err := h.fsService.Remove(c.Param("orgName"), c.Param("bucketName"), filePath(c), q); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}
