package repository

import (
	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository 站内通知仓储接口
type NotificationRepository interface {
	Save(notification *model.NotificationModel) error
	FindByUser(userID string, offset, limit int) ([]*model.NotificationModel, int64, error)
	MarkRead(id, userID string) error
}

// notificationRepository 站内通知仓储实现
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建站内通知仓储
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 保存通知
func (r *notificationRepository) Save(notification *model.NotificationModel) error {
	return r.db.Save(notification).Error
}

// FindByUser 分页查找用户的通知,最新在前
func (r *notificationRepository) FindByUser(userID string, offset, limit int) ([]*model.NotificationModel, int64, error) {
	query := r.db.Model(&model.NotificationModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*model.NotificationModel
	err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// MarkRead 将通知标记为已读,只允许接收人本人操作
func (r *notificationRepository) MarkRead(id, userID string) error {
	result := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
