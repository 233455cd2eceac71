package service

import (
	"errors"
	"fmt"

	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// Subject 审批对象快照,屏蔽工作记录与公文的差异
type Subject struct {
	Kind        string // record / document
	ID          string
	Title       string
	SubmitterID string
	Status      string
}

// SubjectRef 审批对象引用
type SubjectRef struct {
	Kind string
	ID   string
}

// SubjectStore 审批对象存取接口
// 所有方法都在审批引擎自己的事务句柄上调用,保证对象状态
// 与审批实体在同一原子单元内更新
type SubjectStore interface {
	Get(tx *gorm.DB, kind, id string) (*Subject, error)
	SetStatus(tx *gorm.DB, kind, id, status string) error
}

// gormSubjectStore 基于 records/documents 表的审批对象存取实现
type gormSubjectStore struct{}

// NewSubjectStore 创建审批对象存取器
func NewSubjectStore() SubjectStore {
	return &gormSubjectStore{}
}

// Get 读取审批对象快照
func (s *gormSubjectStore) Get(tx *gorm.DB, kind, id string) (*Subject, error) {
	switch kind {
	case model.SubjectKindRecord:
		var record model.RecordModel
		if err := tx.Where("id = ?", id).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewNotFound("工作记录不存在")
			}
			return nil, fmt.Errorf("failed to get record: %w", err)
		}
		return &Subject{
			Kind:        kind,
			ID:          record.ID,
			Title:       record.Title,
			SubmitterID: record.SubmitterID,
			Status:      record.Status,
		}, nil

	case model.SubjectKindDocument:
		var doc model.DocumentModel
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewNotFound("公文不存在")
			}
			return nil, fmt.Errorf("failed to get document: %w", err)
		}
		return &Subject{
			Kind:        kind,
			ID:          doc.ID,
			Title:       doc.Title,
			SubmitterID: doc.SubmitterID,
			Status:      doc.Status,
		}, nil

	default:
		return nil, NewValidation("不支持的审批对象类型: " + kind)
	}
}

// SetStatus 更新审批对象状态
func (s *gormSubjectStore) SetStatus(tx *gorm.DB, kind, id, status string) error {
	var result *gorm.DB
	switch kind {
	case model.SubjectKindRecord:
		result = tx.Model(&model.RecordModel{}).Where("id = ?", id).Update("status", status)
	case model.SubjectKindDocument:
		result = tx.Model(&model.DocumentModel{}).Where("id = ?", id).Update("status", status)
	default:
		return NewValidation("不支持的审批对象类型: " + kind)
	}

	if result.Error != nil {
		return fmt.Errorf("failed to update subject status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFound("审批对象不存在")
	}
	return nil
}

// awaitingStatus 返回审批对象进入审批流程时的状态
func awaitingStatus(kind string) string {
	if kind == model.SubjectKindRecord {
		return model.RecordStatusPendingLevel1
	}
	return model.DocumentStatusPending
}

// approvedStatus 返回审批对象全部通过后的终态
func approvedStatus(kind string) string {
	if kind == model.SubjectKindRecord {
		return model.RecordStatusArchived
	}
	return model.DocumentStatusApproved
}

// rejectedStatus 返回审批对象被驳回后的状态
func rejectedStatus(kind string) string {
	if kind == model.SubjectKindRecord {
		return model.RecordStatusDraft
	}
	return model.DocumentStatusDraft
}
