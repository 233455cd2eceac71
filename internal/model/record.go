package model

import (
	"errors"
	"time"
)

// 工作记录状态常量(审批阶段由审批引擎独占写入)
const (
	RecordStatusDraft         = "draft"          // 草稿(被驳回后回到此状态)
	RecordStatusPendingLevel1 = "pending_level1" // 待一级审批
	RecordStatusPendingLevel2 = "pending_level2" // 待二级审批
	RecordStatusArchived      = "archived"       // 已归档
)

// RecordModel 工作记录数据模型
type RecordModel struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)"`
	Title       string     `gorm:"type:varchar(255);not null"`
	Content     string     `gorm:"type:text"`
	SubmitterID string     `gorm:"type:varchar(64);not null;index"` // 提交人 ID
	Status      string     `gorm:"type:varchar(32);not null;index"`
	Deadline    *time.Time `gorm:"index"` // 处理期限,由外部调度器读取
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (RecordModel) TableName() string {
	return "records"
}

// Validate 验证工作记录模型
func (rm *RecordModel) Validate() error {
	if rm.ID == "" {
		return errors.New("record ID is required")
	}
	if rm.Title == "" {
		return errors.New("record title is required")
	}
	if rm.SubmitterID == "" {
		return errors.New("submitter ID is required")
	}
	if rm.Status == "" {
		return errors.New("record status is required")
	}
	return nil
}
