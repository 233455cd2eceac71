package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/oaflow/workflow-gin/internal/websocket"
	"github.com/sirupsen/logrus"
)

// Dispatcher 通知分发接口
// 对审批引擎而言通知是 fire-and-forget 的:分发失败只记录日志,
// 绝不导致审批事务回滚
type Dispatcher interface {
	Notify(userID, kind, title, body string) error
}

// loggerDispatcher 日志通知分发器,将通知输出为结构化日志
type loggerDispatcher struct {
	logger *logrus.Logger
}

// NewLoggerDispatcher 创建日志通知分发器
func NewLoggerDispatcher(logger *logrus.Logger) Dispatcher {
	return &loggerDispatcher{logger: logger}
}

// Notify 以结构化日志形式记录通知
func (d *loggerDispatcher) Notify(userID, kind, title, body string) error {
	d.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"kind":    kind,
		"title":   title,
	}).Info("notification dispatched")
	return nil
}

// inboxDispatcher 站内信分发器,将通知写入 notifications 表
type inboxDispatcher struct {
	repo repository.NotificationRepository
}

// NewInboxDispatcher 创建站内信分发器
func NewInboxDispatcher(repo repository.NotificationRepository) Dispatcher {
	return &inboxDispatcher{repo: repo}
}

// Notify 持久化一条站内通知
func (d *inboxDispatcher) Notify(userID, kind, title, body string) error {
	return d.repo.Save(&model.NotificationModel{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	})
}

// hubDispatcher WebSocket 推送分发器,向在线用户实时推送通知
type hubDispatcher struct {
	hub *websocket.Hub
}

// NewHubDispatcher 创建 WebSocket 推送分发器
func NewHubDispatcher(hub *websocket.Hub) Dispatcher {
	return &hubDispatcher{hub: hub}
}

// Notify 向指定用户的在线连接推送通知,用户离线时静默丢弃
func (d *hubDispatcher) Notify(userID, kind, title, body string) error {
	message, err := json.Marshal(map[string]string{
		"kind":  kind,
		"title": title,
		"body":  body,
	})
	if err != nil {
		return err
	}
	d.hub.BroadcastToUser(userID, message)
	return nil
}

// multiDispatcher 组合分发器,逐个调用下游分发器
// 单个下游失败不影响其余下游,返回第一个遇到的错误供调用方记录
type multiDispatcher struct {
	dispatchers []Dispatcher
}

// NewMultiDispatcher 创建组合分发器
func NewMultiDispatcher(dispatchers ...Dispatcher) Dispatcher {
	return &multiDispatcher{dispatchers: dispatchers}
}

// Notify 依次分发到所有下游
func (d *multiDispatcher) Notify(userID, kind, title, body string) error {
	var firstErr error
	for _, dispatcher := range d.dispatchers {
		if err := dispatcher.Notify(userID, kind, title, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
