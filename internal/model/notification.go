package model

import (
	"errors"
	"time"
)

// 通知类型常量
const (
	NotificationKindPending  = "approval_pending"  // 有新的待办审批
	NotificationKindApproved = "approval_approved" // 审批通过
	NotificationKindRejected = "approval_rejected" // 审批被驳回
)

// NotificationModel 站内通知数据模型
type NotificationModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	UserID    string    `gorm:"type:varchar(64);not null;index"` // 接收人 ID
	Kind      string    `gorm:"type:varchar(32);not null"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Body      string    `gorm:"type:text"`
	Read      bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (NotificationModel) TableName() string {
	return "notifications"
}

// Validate 验证通知模型
func (nm *NotificationModel) Validate() error {
	if nm.ID == "" {
		return errors.New("notification ID is required")
	}
	if nm.UserID == "" {
		return errors.New("user ID is required")
	}
	if nm.Kind == "" {
		return errors.New("notification kind is required")
	}
	return nil
}
