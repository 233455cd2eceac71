package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/oaflow/workflow-gin/docs" // 导入生成的 docs 包
	"github.com/oaflow/workflow-gin/internal/auth"
	"github.com/oaflow/workflow-gin/internal/config"
	"github.com/oaflow/workflow-gin/internal/websocket"
	"gorm.io/gorm"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Approval     *ApprovalController
	Query        *QueryController
	Notification *NotificationController
}

// SetupRoutes 配置路由
func SetupRoutes(cfg *config.Config, db *gorm.DB, hub *websocket.Hub, validator *auth.TokenValidator, controllers Controllers) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 通知推送
	if hub != nil && validator != nil {
		router.GET("/ws/notifications", websocket.Handler(hub, validator))
	}

	// Swagger UI 路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 未匹配路由统一返回 JSON
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", c.Request.URL.Path)
	})

	// API v1 路由组,全部要求携带身份
	identity := auth.IdentityMiddleware(validator, cfg.Auth.AllowDevHeader)
	v1 := router.Group("/api/v1")
	v1.Use(identity)
	{
		// 审批管理路由
		approvals := v1.Group("/approvals")
		{
			approvals.POST("/single", controllers.Approval.BuildSingleLevel)
			approvals.POST("/two-level", controllers.Approval.BuildTwoLevel)
			approvals.POST("/sequential", controllers.Approval.BuildSequential)
			approvals.POST("/countersign", controllers.Approval.BuildCountersign)
			approvals.POST("/:id/approve", controllers.Approval.Approve)
			approvals.POST("/:id/reject", controllers.Approval.Reject)
			approvals.POST("/:id/resolve", controllers.Approval.Resolve)
			approvals.GET("/pending", controllers.Query.GetPending)
			approvals.GET("/history", controllers.Query.GetHistory)
		}

		// 审批对象查询路由
		v1.GET("/subjects/:kind/:id/approvals", controllers.Query.GetChain)
		v1.GET("/subjects/:kind/:id/audit", controllers.Query.GetAuditTrail)

		// 站内通知路由
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", controllers.Notification.List)
			notifications.PUT("/:id/read", controllers.Notification.MarkRead)
		}
	}

	return router
}
