package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaflow/workflow-gin/internal/service"
)

// ServiceError 将服务层错误分类映射为 HTTP 响应
// 未识别的错误一律按 500 处理,详情透传给调用方
func ServiceError(c *gin.Context, err error) {
	switch {
	case service.IsNotFound(err):
		Error(c, http.StatusNotFound, "resource not found", err.Error())
	case service.IsValidation(err):
		Error(c, http.StatusBadRequest, "validation failed", err.Error())
	case service.IsConflict(err):
		Error(c, http.StatusConflict, "conflict", err.Error())
	case service.IsForbidden(err):
		Error(c, http.StatusForbidden, "forbidden", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

// ErrorHandlerMiddleware 错误处理中间件
// 处理链路上通过 c.Error 上报且未被控制器消化的错误
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			ServiceError(c, c.Errors.Last().Err)
		}
	}
}
