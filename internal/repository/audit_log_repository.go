package repository

import (
	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓储接口
type AuditLogRepository interface {
	Save(tx *gorm.DB, log *model.AuditLogModel) error
	FindByActor(actorID string) ([]*model.AuditLogModel, error)
	FindBySubject(kind, subjectID string) ([]*model.AuditLogModel, error)
}

// auditLogRepository 审计日志仓储实现
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save 保存审计日志
// 审计条目和审批状态变更在同一事务内落库,传入事务句柄
func (r *auditLogRepository) Save(tx *gorm.DB, log *model.AuditLogModel) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(log).Error
}

// FindByActor 根据操作人查找审计日志
func (r *auditLogRepository) FindByActor(actorID string) ([]*model.AuditLogModel, error) {
	var logs []*model.AuditLogModel
	err := r.db.Where("actor_id = ?", actorID).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// FindBySubject 根据审批对象查找审计日志
func (r *auditLogRepository) FindBySubject(kind, subjectID string) ([]*model.AuditLogModel, error) {
	var logs []*model.AuditLogModel
	err := r.db.Where("subject_kind = ? AND subject_id = ?", kind, subjectID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
