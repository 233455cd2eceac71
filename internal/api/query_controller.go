package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oaflow/workflow-gin/internal/auth"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/oaflow/workflow-gin/internal/service"
)

// QueryController 审批查询控制器
type QueryController struct {
	queryService service.QueryService
	auditRepo    repository.AuditLogRepository
}

// NewQueryController 创建审批查询控制器
func NewQueryController(queryService service.QueryService, auditRepo repository.AuditLogRepository) *QueryController {
	return &QueryController{
		queryService: queryService,
		auditRepo:    auditRepo,
	}
}

// parsePagination 解析分页参数,越界时回退默认值
func parsePagination(ctx *gin.Context) (int, int) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// GetChain 获取审批链
// @Summary      获取审批对象的审批链
// @Description  返回审批对象最近一次发起的完整审批链
// @Tags         审批查询
// @Produce      json
// @Param        kind path string true "对象类型" Enums(record, document)
// @Param        id   path string true "对象 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /subjects/{kind}/{id}/approvals [get]
// @Security     BearerAuth
func (c *QueryController) GetChain(ctx *gin.Context) {
	kind := ctx.Param("kind")
	if !validSubjectKind(kind) {
		Error(ctx, http.StatusBadRequest, "invalid request", "unknown subject kind: "+kind)
		return
	}

	entries, err := c.queryService.GetChain(kind, ctx.Param("id"))
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, entries)
}

// GetPending 获取待办审批
// @Summary      获取待办审批列表
// @Description  按角色返回当前用户可见的待处理审批,分页
// @Tags         审批查询
// @Produce      json
// @Param        page      query int false "页码"     default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Router       /approvals/pending [get]
// @Security     BearerAuth
func (c *QueryController) GetPending(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx)

	entries, total, err := c.queryService.GetPendingFor(auth.UserID(ctx), auth.UserRole(ctx), page, pageSize)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Paginated(ctx, entries, NewPaginationInfo(page, pageSize, total))
}

// GetAuditTrail 获取审批对象的审计轨迹
// @Summary      获取审批对象的审计轨迹
// @Description  返回审批对象上全部发起与处理动作,按时间倒序
// @Tags         审批查询
// @Produce      json
// @Param        kind path string true "对象类型" Enums(record, document)
// @Param        id   path string true "对象 ID"
// @Success      200  {object}  Response
// @Router       /subjects/{kind}/{id}/audit [get]
// @Security     BearerAuth
func (c *QueryController) GetAuditTrail(ctx *gin.Context) {
	kind := ctx.Param("kind")
	if !validSubjectKind(kind) {
		Error(ctx, http.StatusBadRequest, "invalid request", "unknown subject kind: "+kind)
		return
	}

	logs, err := c.auditRepo.FindBySubject(kind, ctx.Param("id"))
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get audit trail", err.Error())
		return
	}

	Success(ctx, logs)
}

// GetHistory 获取审批历史
// @Summary      获取审批历史
// @Description  返回当前用户已处理过的审批,按处理时间倒序分页
// @Tags         审批查询
// @Produce      json
// @Param        page      query int false "页码"     default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Router       /approvals/history [get]
// @Security     BearerAuth
func (c *QueryController) GetHistory(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx)

	entries, total, err := c.queryService.GetHistory(auth.UserID(ctx), page, pageSize)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Paginated(ctx, entries, NewPaginationInfo(page, pageSize, total))
}
