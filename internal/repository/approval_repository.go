package repository

import (
	"github.com/oaflow/workflow-gin/internal/model"
	"gorm.io/gorm"
)

// 审批终态集合,供状态过滤复用
var terminalStatuses = []string{
	model.ApprovalStatusApproved,
	model.ApprovalStatusRejected,
	model.ApprovalStatusCancelled,
}

// ApprovalRepository 审批实体仓储接口
// 只承担无锁读场景;审批引擎的写路径直接在自己的事务句柄上操作
type ApprovalRepository interface {
	FindByID(id string) (*model.ApprovalModel, error)
	FindBySubject(kind, subjectID string) ([]*model.ApprovalModel, error)
	FindByGroup(groupID string) ([]*model.ApprovalModel, error)
	CountActiveBySubject(kind, subjectID string) (int64, error)
	FindPending() ([]*model.ApprovalModel, error)
	FindPendingByApprover(approverID string) ([]*model.ApprovalModel, error)
	FindResolvedByApprover(approverID string, offset, limit int) ([]*model.ApprovalModel, int64, error)
}

// approvalRepository 审批实体仓储实现
type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository 创建审批实体仓储
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// FindByID 根据 ID 查找审批实体
func (r *approvalRepository) FindByID(id string) (*model.ApprovalModel, error) {
	var approval model.ApprovalModel
	if err := r.db.Where("id = ?", id).First(&approval).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

// FindBySubject 查找审批对象的全部审批实体,按级别/顺序排列
func (r *approvalRepository) FindBySubject(kind, subjectID string) ([]*model.ApprovalModel, error) {
	var approvals []*model.ApprovalModel
	err := subjectScope(r.db, kind, subjectID).
		Order("level ASC").Order("sequence ASC").Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

// FindByGroup 查找同组的全部审批实体,按顺序排列
func (r *approvalRepository) FindByGroup(groupID string) ([]*model.ApprovalModel, error) {
	var approvals []*model.ApprovalModel
	err := r.db.Where("group_id = ?", groupID).
		Order("sequence ASC").Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

// CountActiveBySubject 统计审批对象上未到终态的审批实体数量
func (r *approvalRepository) CountActiveBySubject(kind, subjectID string) (int64, error) {
	var count int64
	err := subjectScope(r.db.Model(&model.ApprovalModel{}), kind, subjectID).
		Where("status NOT IN ?", terminalStatuses).
		Count(&count).Error
	return count, err
}

// FindPending 查找全部待处理审批,按创建时间排列
func (r *approvalRepository) FindPending() ([]*model.ApprovalModel, error) {
	var approvals []*model.ApprovalModel
	err := r.db.Where("status = ?", model.ApprovalStatusPending).
		Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

// FindPendingByApprover 查找指定审批人的待处理审批
func (r *approvalRepository) FindPendingByApprover(approverID string) ([]*model.ApprovalModel, error) {
	var approvals []*model.ApprovalModel
	err := r.db.Where("approver_id = ? AND status = ?", approverID, model.ApprovalStatusPending).
		Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

// FindResolvedByApprover 分页查找指定审批人已处理的审批,最新在前
func (r *approvalRepository) FindResolvedByApprover(approverID string, offset, limit int) ([]*model.ApprovalModel, int64, error) {
	query := r.db.Model(&model.ApprovalModel{}).
		Where("approver_id = ? AND status IN ?", approverID, terminalStatuses)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var approvals []*model.ApprovalModel
	err := query.Order("resolved_at DESC").
		Offset(offset).Limit(limit).
		Find(&approvals).Error
	return approvals, total, err
}

// subjectScope 按审批对象类型添加查询条件
func subjectScope(query *gorm.DB, kind, subjectID string) *gorm.DB {
	if kind == model.SubjectKindRecord {
		return query.Where("record_id = ?", subjectID)
	}
	return query.Where("document_id = ?", subjectID)
}
