package model

import (
	"errors"
	"time"
)

// 审计动作常量
const (
	AuditActionBuild   = "build"   // 发起审批
	AuditActionApprove = "approve" // 同意
	AuditActionReject  = "reject"  // 驳回
)

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	ActorID     string    `gorm:"type:varchar(64);not null;index"`
	Action      string    `gorm:"type:varchar(64);not null;index"` // build/approve/reject
	SubjectKind string    `gorm:"type:varchar(32);not null"`       // record/document
	SubjectID   string    `gorm:"type:varchar(64);not null;index"`
	ApprovalID  string    `gorm:"type:varchar(64);index"`
	Detail      string    `gorm:"type:text"` // 审批意见或驳回原因
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (alm *AuditLogModel) Validate() error {
	if alm.ID == "" {
		return errors.New("audit log ID is required")
	}
	if alm.ActorID == "" {
		return errors.New("actor ID is required")
	}
	if alm.Action == "" {
		return errors.New("action is required")
	}
	if alm.SubjectKind == "" {
		return errors.New("subject kind is required")
	}
	if alm.SubjectID == "" {
		return errors.New("subject ID is required")
	}
	return nil
}
