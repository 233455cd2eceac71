package model

import (
	"errors"
	"time"
)

// 公文状态常量(审批阶段由审批引擎独占写入)
const (
	DocumentStatusDraft    = "draft"    // 草稿(被驳回后回到此状态)
	DocumentStatusPending  = "pending"  // 审批中
	DocumentStatusApproved = "approved" // 已通过
)

// DocumentModel 公文数据模型
type DocumentModel struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)"`
	Title       string     `gorm:"type:varchar(255);not null"`
	FileKey     string     `gorm:"type:varchar(255)"` // 外部文件存储的对象键
	SubmitterID string     `gorm:"type:varchar(64);not null;index"` // 提交人 ID
	Status      string     `gorm:"type:varchar(32);not null;index"`
	Deadline    *time.Time `gorm:"index"` // 处理期限,由外部调度器读取
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (DocumentModel) TableName() string {
	return "documents"
}

// Validate 验证公文模型
func (dm *DocumentModel) Validate() error {
	if dm.ID == "" {
		return errors.New("document ID is required")
	}
	if dm.Title == "" {
		return errors.New("document title is required")
	}
	if dm.SubmitterID == "" {
		return errors.New("submitter ID is required")
	}
	if dm.Status == "" {
		return errors.New("document status is required")
	}
	return nil
}
