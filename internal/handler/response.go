// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
)

// fail 把业务错误统一映射为 HTTP 响应。
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, gin.H{
		"code":    status,
		"message": apperr.Message(err),
	})
}

// ok 返回带 data 的成功响应。
func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    data,
		"message": "success",
	})
}

// currentUser 取出 AuthMiddleware 注入的 User 对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	userValue, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	user, okCast := userValue.(*model.User)
	if !okCast || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil, false
	}
	return user, true
}

// pathUUID 解析一个路径参数中的 uuid，非法时直接响应 400。
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// queryCursor 解析可选的游标查询参数。
func queryCursor(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("cursor")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 cursor",
		})
		return nil, false
	}
	return &id, true
}

// queryLimit 解析分页大小，缺省 20，上限 100。
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
