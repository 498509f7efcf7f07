package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"filedock-go/internal/model"
	"filedock-go/internal/service"
	"filedock-go/pkg/log"
)

// OrganizationHandler 负责处理组织、成员与组织密钥相关的 API 请求。
type OrganizationHandler struct {
	orgService service.OrganizationService
}

// NewOrganizationHandler 创建一个新的 OrganizationHandler 实例。
func NewOrganizationHandler(orgService service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// CreateOrganizationRequest 定义了创建组织 API 的请求体结构。
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create 处理创建组织的请求，创建者自动成为 OWNER。
func (h *OrganizationHandler) Create(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}

	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：组织名称不能为空",
		})
		return
	}

	org, err := h.orgService.Create(req.Name, user.ID)
	if err != nil {
		log.Warnf("CreateOrganization: failed for '%s', error: %v", req.Name, err)
		fail(c, err)
		return
	}
	log.Infof("Organization '%s' created by '%s'", org.Name, user.Username)
	ok(c, org)
}

// List 列出当前用户所属的组织，支持关键字过滤与游标分页。
func (h *OrganizationHandler) List(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	cursor, valid := queryCursor(c)
	if !valid {
		return
	}

	orgs, err := h.orgService.List(user.ID, c.Query("keyword"), queryLimit(c), cursor)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, orgs)
}

// Get 获取单个组织。
func (h *OrganizationHandler) Get(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}

	org, err := h.orgService.Fetch(orgID, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, org)
}

// ListMembers 列出组织成员。
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
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

	members, err := h.orgService.ListMembers(orgID, c.Query("keyword"), queryLimit(c), cursor, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, members)
}

// MemberRequest 定义了添加/修改成员 API 的请求体结构。
type MemberRequest struct {
	UserID uuid.UUID              `json:"userId" binding:"required"`
	Role   model.OrganizationRole `json:"role" binding:"required"`
}

// AddMember 把用户加入组织。
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	target, err := h.orgService.AddMember(orgID, req.UserID, req.Role, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	log.Infof("User '%s' added to organization %s with role %s", target.Username, orgID, req.Role)
	ok(c, target)
}

// UpdateMember 修改成员角色。
func (h *OrganizationHandler) UpdateMember(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	target, err := h.orgService.UpdateMember(orgID, req.UserID, req.Role, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, target)
}

// RemoveMember 把成员移出组织。
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}
	targetID, valid := pathUUID(c, "userId")
	if !valid {
		return
	}

	if err := h.orgService.RemoveMember(orgID, targetID, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "成员已移除",
	})
}

// CreateSecret 为组织签发一个新的能力 URL 密钥。
// 这是唯一一次返回 secret 明文的机会，列表接口同样会返回，
// 由组织管理员自行保管。
func (h *OrganizationHandler) CreateSecret(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}

	secret, err := h.orgService.CreateSecret(orgID, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	log.Infof("Secret '%s' created for organization %s", secret.ID, orgID)
	ok(c, secret)
}

// ListSecrets 分页列出组织密钥。
func (h *OrganizationHandler) ListSecrets(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	secrets, err := h.orgService.ListSecrets(orgID, queryLimit(c), page, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, secrets)
}

// DeleteSecret 撤销组织密钥，之后用它签出的所有能力 URL 立即失效。
func (h *OrganizationHandler) DeleteSecret(c *gin.Context) {
	user, valid := currentUser(c)
	if !valid {
		return
	}
	orgID, valid := pathUUID(c, "orgId")
	if !valid {
		return
	}
	secretID := c.Param("secretId")
	if secretID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 secretId",
		})
		return
	}

	if err := h.orgService.DeleteSecret(secretID, orgID, user.ID); err != nil {
		fail(c, err)
		return
	}
	log.Infof("Secret '%s' deleted from organization %s", secretID, orgID)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "密钥已撤销",
	})
}

// OrganizationFromSecret 供 SDK 反查密钥所属的组织。
// 匿名接口：调用方持有密钥本身，用它对密钥 id 签名来证明持有。
func (h *OrganizationHandler) OrganizationFromSecret(c *gin.Context) {
	secretID := c.Query("secret_id")
	signature := c.Query("signature")
	if secretID == "" || signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少 secret_id 或 signature",
		})
		return
	}

	org, err := h.orgService.OrganizationFromSecret(secretID, signature)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, org)
}
