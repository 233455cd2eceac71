package model

import (
	"errors"
	"time"
)

// 审批状态常量
const (
	ApprovalStatusPending   = "pending"   // 待处理,当前可审批
	ApprovalStatusWaiting   = "waiting"   // 等待激活,还未轮到
	ApprovalStatusApproved  = "approved"  // 已同意
	ApprovalStatusRejected  = "rejected"  // 已驳回
	ApprovalStatusCancelled = "cancelled" // 已作废(同组其他人驳回导致)
)

// 审批类型常量
const (
	ApprovalKindSingle      = "single"      // 单级审批
	ApprovalKindTwoLevel    = "two_level"   // 两级审批
	ApprovalKindSequential  = "sequential"  // 顺序会审
	ApprovalKindCountersign = "countersign" // 并行会签
)

// 审批对象类型常量
const (
	SubjectKindRecord   = "record"   // 工作记录
	SubjectKindDocument = "document" // 公文
)

// ApprovalModel 审批实体数据模型
// 一条记录代表审批链/审批组中的一个签核单元,只增不删,终态后不可变
type ApprovalModel struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)"`
	RecordID     *string    `gorm:"type:varchar(64);index"` // 工作记录 ID(与 DocumentID 二选一)
	DocumentID   *string    `gorm:"type:varchar(64);index"` // 公文 ID(与 RecordID 二选一)
	ApproverID   string     `gorm:"type:varchar(64);not null;index"`
	Level        int        `gorm:"type:int;default:0"`              // 两级审批的级别(1 或 2)
	Sequence     int        `gorm:"type:int;default:0"`              // 顺序会审的位置(1..N)
	GroupID      string     `gorm:"type:varchar(64);index"`          // 顺序会审/并行会签的分组 ID
	Kind         string     `gorm:"type:varchar(32);not null;index"` // 审批类型
	Status       string     `gorm:"type:varchar(32);not null;index"` // 审批状态
	Comment      string     `gorm:"type:text"`                       // 审批意见(同意时填写)
	RejectReason string     `gorm:"type:text"`                       // 驳回原因(驳回时填写)
	ResolvedAt   *time.Time `gorm:"index"`                           // 处理时间,进入终态时写入
	PrevID       *string    `gorm:"type:varchar(64)"`                // 链中前驱审批 ID
	NextID       *string    `gorm:"type:varchar(64)"`                // 链中后继审批 ID
	CreatedAt    time.Time  `gorm:"not null;index"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName 指定表名
func (ApprovalModel) TableName() string {
	return "approvals"
}

// SubjectKind 返回审批对象类型
func (am *ApprovalModel) SubjectKind() string {
	if am.RecordID != nil {
		return SubjectKindRecord
	}
	return SubjectKindDocument
}

// SubjectID 返回审批对象 ID
func (am *ApprovalModel) SubjectID() string {
	if am.RecordID != nil {
		return *am.RecordID
	}
	if am.DocumentID != nil {
		return *am.DocumentID
	}
	return ""
}

// IsTerminal 判断审批是否已进入终态
func (am *ApprovalModel) IsTerminal() bool {
	switch am.Status {
	case ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusCancelled:
		return true
	}
	return false
}

// Validate 验证审批实体模型
func (am *ApprovalModel) Validate() error {
	if am.ID == "" {
		return errors.New("approval ID is required")
	}
	if (am.RecordID == nil) == (am.DocumentID == nil) {
		return errors.New("exactly one of record ID and document ID is required")
	}
	if am.ApproverID == "" {
		return errors.New("approver ID is required")
	}
	if am.Kind == "" {
		return errors.New("approval kind is required")
	}
	if am.Status == "" {
		return errors.New("approval status is required")
	}
	return nil
}
