package container

import (
	"fmt"
	"time"

	"github.com/oaflow/workflow-gin/internal/auth"
	"github.com/oaflow/workflow-gin/internal/config"
	"github.com/oaflow/workflow-gin/internal/database"
	"github.com/oaflow/workflow-gin/internal/notify"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/oaflow/workflow-gin/internal/service"
	"github.com/oaflow/workflow-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、服务、通知分发器等
type Container struct {
	db               *gorm.DB
	hub              *websocket.Hub
	tokenValidator   *auth.TokenValidator
	dispatcher       notify.Dispatcher
	notificationRepo repository.NotificationRepository
	chainService     service.ChainService
	approvalService  service.ApprovalService
	queryService     service.QueryService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化 WebSocket Hub 和 Token 验证器
	hub := websocket.NewHub()
	tokenValidator := auth.NewTokenValidator(cfg.Auth.JWTSecret)

	// 3. 初始化通知分发器
	// 站内信落库 + WebSocket 实时推送 + 结构化日志兜底
	notificationRepo := repository.NewNotificationRepository(db)
	dispatcher := notify.NewMultiDispatcher(
		notify.NewInboxDispatcher(notificationRepo),
		notify.NewHubDispatcher(hub),
		notify.NewLoggerDispatcher(logger),
	)

	// 4. 初始化审批服务
	subjects := service.NewSubjectStore()
	directory := service.NewDirectory(db)
	chainService := service.NewChainService(db, subjects, directory, dispatcher, logger)
	approvalService := service.NewApprovalService(db, subjects, dispatcher, logger)
	queryService := service.NewQueryService(db, subjects, directory)

	return &Container{
		db:               db,
		hub:              hub,
		tokenValidator:   tokenValidator,
		dispatcher:       dispatcher,
		notificationRepo: notificationRepo,
		chainService:     chainService,
		approvalService:  approvalService,
		queryService:     queryService,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// TokenValidator 获取 Token 验证器
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.tokenValidator
}

// Dispatcher 获取通知分发器
func (c *Container) Dispatcher() notify.Dispatcher {
	return c.dispatcher
}

// NotificationRepository 获取站内通知仓储
func (c *Container) NotificationRepository() repository.NotificationRepository {
	return c.notificationRepo
}

// ChainService 获取审批链构建服务
func (c *Container) ChainService() service.ChainService {
	return c.chainService
}

// ApprovalService 获取审批处理服务
func (c *Container) ApprovalService() service.ApprovalService {
	return c.approvalService
}

// QueryService 获取审批查询服务
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
