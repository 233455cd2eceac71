package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaflow/workflow-gin/internal/auth"
	"github.com/oaflow/workflow-gin/internal/repository"
	"gorm.io/gorm"
)

// NotificationController 站内通知控制器
type NotificationController struct {
	repo repository.NotificationRepository
}

// NewNotificationController 创建站内通知控制器
func NewNotificationController(repo repository.NotificationRepository) *NotificationController {
	return &NotificationController{repo: repo}
}

// List 获取通知列表
// @Summary      获取通知列表
// @Description  返回当前用户的站内通知,按时间倒序分页
// @Tags         通知
// @Produce      json
// @Param        page      query int false "页码"     default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func (c *NotificationController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx)

	notifications, total, err := c.repo.FindByUser(auth.UserID(ctx), (page-1)*pageSize, pageSize)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list notifications", err.Error())
		return
	}

	Paginated(ctx, notifications, NewPaginationInfo(page, pageSize, total))
}

// MarkRead 标记通知已读
// @Summary      标记通知已读
// @Description  将当前用户的一条通知标记为已读
// @Tags         通知
// @Produce      json
// @Param        id path string true "通知 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
// @Security     BearerAuth
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	err := c.repo.MarkRead(ctx.Param("id"), auth.UserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Error(ctx, http.StatusNotFound, "notification not found", err.Error())
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to mark notification read", err.Error())
		return
	}

	Success(ctx, nil)
}
