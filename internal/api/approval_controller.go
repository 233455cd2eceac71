package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaflow/workflow-gin/internal/auth"
	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/service"
	"github.com/oaflow/workflow-gin/internal/utils"
)

// ApprovalController 审批控制器
type ApprovalController struct {
	chainService    service.ChainService
	approvalService service.ApprovalService
}

// NewApprovalController 创建审批控制器
func NewApprovalController(chainService service.ChainService, approvalService service.ApprovalService) *ApprovalController {
	return &ApprovalController{
		chainService:    chainService,
		approvalService: approvalService,
	}
}

// BuildSingleRequest 单级审批创建请求
type BuildSingleRequest struct {
	SubjectKind string `json:"subject_kind" binding:"required" example:"record"`
	SubjectID   string `json:"subject_id" binding:"required"`
	ApproverID  string `json:"approver_id" binding:"required"`
}

// BuildTwoLevelRequest 两级审批创建请求
// 审批人由组织目录推导,不由调用方指定
type BuildTwoLevelRequest struct {
	SubjectKind string `json:"subject_kind" binding:"required" example:"record"`
	SubjectID   string `json:"subject_id" binding:"required"`
}

// BuildChainRequest 会审/会签创建请求
type BuildChainRequest struct {
	SubjectKind string   `json:"subject_kind" binding:"required" example:"document"`
	SubjectID   string   `json:"subject_id" binding:"required"`
	ApproverIDs []string `json:"approver_ids" binding:"required"`
}

// ResolveRequest 审批处理请求
type ResolveRequest struct {
	Action  string `json:"action" binding:"required" example:"approve"` // approve 或 reject
	Comment string `json:"comment"`                                    // 同意意见(可选)
	Reason  string `json:"reason"`                                     // 驳回原因(驳回时必填)
}

// ApproveRequest 同意请求
type ApproveRequest struct {
	Comment string `json:"comment"` // 同意意见(可选)
}

// RejectRequest 驳回请求
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"` // 驳回原因
}

// validSubjectKind 校验审批对象类型
func validSubjectKind(kind string) bool {
	return kind == model.SubjectKindRecord || kind == model.SubjectKindDocument
}

// validateApprovalID 校验审批 ID 并返回错误响应（如果无效）
func (c *ApprovalController) validateApprovalID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid approval ID", err.Error())
		return false
	}
	return true
}

// BuildSingleLevel 创建单级审批
// @Summary      创建单级审批
// @Description  为审批对象创建单级审批,由指定审批人处理
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        request body BuildSingleRequest true "审批信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/single [post]
// @Security     BearerAuth
func (c *ApprovalController) BuildSingleLevel(ctx *gin.Context) {
	var req BuildSingleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if !validSubjectKind(req.SubjectKind) {
		Error(ctx, http.StatusBadRequest, "invalid request", "unknown subject kind: "+req.SubjectKind)
		return
	}

	ref := service.SubjectRef{Kind: req.SubjectKind, ID: req.SubjectID}
	approval, err := c.chainService.BuildSingleLevel(ctx.Request.Context(), ref, req.ApproverID)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approval)
}

// BuildTwoLevel 创建两级审批
// @Summary      创建两级审批
// @Description  为审批对象创建两级审批,一级为直属上级,二级为部门经理
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        request body BuildTwoLevelRequest true "审批信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/two-level [post]
// @Security     BearerAuth
func (c *ApprovalController) BuildTwoLevel(ctx *gin.Context) {
	var req BuildTwoLevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if !validSubjectKind(req.SubjectKind) {
		Error(ctx, http.StatusBadRequest, "invalid request", "unknown subject kind: "+req.SubjectKind)
		return
	}

	ref := service.SubjectRef{Kind: req.SubjectKind, ID: req.SubjectID}
	approvals, err := c.chainService.BuildTwoLevel(ctx.Request.Context(), ref)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approvals)
}

// BuildSequential 创建顺序会审
// @Summary      创建顺序会审
// @Description  按给定顺序创建逐位签核的审批链
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        request body BuildChainRequest true "审批信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/sequential [post]
// @Security     BearerAuth
func (c *ApprovalController) BuildSequential(ctx *gin.Context) {
	var req BuildChainRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if !validSubjectKind(req.SubjectKind) {
		Error(ctx, http.StatusBadRequest, "invalid request", "unknown subject kind: "+req.SubjectKind)
		return
	}

	ref := service.SubjectRef{Kind: req.SubjectKind, ID: req.SubjectID}
	approvals, err := c.chainService.BuildSequential(ctx.Request.Context(), ref, req.ApproverIDs)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approvals)
}

// BuildCountersign 创建并行会签
// @Summary      创建并行会签
// @Description  创建全员同时签核的审批组,全部同意才通过
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        request body BuildChainRequest true "审批信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/countersign [post]
// @Security     BearerAuth
func (c *ApprovalController) BuildCountersign(ctx *gin.Context) {
	var req BuildChainRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if !validSubjectKind(req.SubjectKind) {
		Error(ctx, http.StatusBadRequest, "invalid request", "unknown subject kind: "+req.SubjectKind)
		return
	}

	ref := service.SubjectRef{Kind: req.SubjectKind, ID: req.SubjectID}
	approvals, err := c.chainService.BuildCountersign(ctx.Request.Context(), ref, req.ApproverIDs)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approvals)
}

// Approve 同意审批
// @Summary      同意审批
// @Description  当前审批人同意,驱动审批链流转
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        id path string true "审批 ID"
// @Param        request body ApproveRequest true "审批意见"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/{id}/approve [post]
// @Security     BearerAuth
func (c *ApprovalController) Approve(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateApprovalID(ctx, id) {
		return
	}

	var req ApproveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	approval, err := c.approvalService.Resolve(ctx.Request.Context(),
		id, auth.UserID(ctx), auth.UserRole(ctx), service.ActionApprove, req.Comment)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approval)
}

// Reject 驳回审批
// @Summary      驳回审批
// @Description  当前审批人驳回,作废同链未处理的审批
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        id path string true "审批 ID"
// @Param        request body RejectRequest true "驳回原因"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/{id}/reject [post]
// @Security     BearerAuth
func (c *ApprovalController) Reject(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateApprovalID(ctx, id) {
		return
	}

	var req RejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	approval, err := c.approvalService.Resolve(ctx.Request.Context(),
		id, auth.UserID(ctx), auth.UserRole(ctx), service.ActionReject, req.Reason)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approval)
}

// Resolve 处理审批
// @Summary      处理审批
// @Description  以显式动作处理审批,approve 带意见,reject 带原因
// @Tags         审批管理
// @Accept       json
// @Produce      json
// @Param        id path string true "审批 ID"
// @Param        request body ResolveRequest true "处理动作"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /approvals/{id}/resolve [post]
// @Security     BearerAuth
func (c *ApprovalController) Resolve(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateApprovalID(ctx, id) {
		return
	}

	var req ResolveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	text := req.Comment
	if req.Action == service.ActionReject {
		text = req.Reason
	}

	approval, err := c.approvalService.Resolve(ctx.Request.Context(),
		id, auth.UserID(ctx), auth.UserRole(ctx), req.Action, text)
	if err != nil {
		ServiceError(ctx, err)
		return
	}

	Success(ctx, approval)
}
