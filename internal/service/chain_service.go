package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oaflow/workflow-gin/internal/metrics"
	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/notify"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChainService 审批链构建服务接口
// 每次提交调用一次,在一个事务内落库完整的审批拓扑并
// 将审批对象置为待审批状态,全部成功或全部不写
type ChainService interface {
	BuildSingleLevel(ctx context.Context, subject SubjectRef, approverID string) (*model.ApprovalModel, error)
	BuildTwoLevel(ctx context.Context, subject SubjectRef) ([]*model.ApprovalModel, error)
	BuildSequential(ctx context.Context, subject SubjectRef, approverIDs []string) ([]*model.ApprovalModel, error)
	BuildCountersign(ctx context.Context, subject SubjectRef, approverIDs []string) ([]*model.ApprovalModel, error)
}

// chainService 审批链构建服务实现
type chainService struct {
	db         *gorm.DB
	subjects   SubjectStore
	directory  Directory
	dispatcher notify.Dispatcher
	auditRepo  repository.AuditLogRepository
	logger     *logrus.Logger
}

// NewChainService 创建审批链构建服务
func NewChainService(db *gorm.DB, subjects SubjectStore, directory Directory, dispatcher notify.Dispatcher, logger *logrus.Logger) ChainService {
	return &chainService{
		db:         db,
		subjects:   subjects,
		directory:  directory,
		dispatcher: dispatcher,
		auditRepo:  repository.NewAuditLogRepository(db),
		logger:     logger,
	}
}

// BuildSingleLevel 构建单级审批
func (s *chainService) BuildSingleLevel(ctx context.Context, ref SubjectRef, approverID string) (*model.ApprovalModel, error) {
	if approverID == "" {
		return nil, NewValidation("审批人 ID 不能为空")
	}

	approval := &model.ApprovalModel{
		ID:         uuid.New().String(),
		ApproverID: approverID,
		Kind:       model.ApprovalKindSingle,
		Status:     model.ApprovalStatusPending,
	}

	subject, err := s.build(ctx, ref, []*model.ApprovalModel{approval}, func(subject *Subject) error {
		if approverID == subject.SubmitterID {
			return NewValidation("审批人不能是提交人本人")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyPending(subject, approval.ApproverID)
	metrics.RecordChainBuilt(model.ApprovalKindSingle)
	return approval, nil
}

// BuildTwoLevel 构建两级审批
// 一级审批人为提交人的直属上级,二级审批人为提交人所在部门的经理
func (s *chainService) BuildTwoLevel(ctx context.Context, ref SubjectRef) ([]*model.ApprovalModel, error) {
	level1 := &model.ApprovalModel{
		ID:     uuid.New().String(),
		Level:  1,
		Kind:   model.ApprovalKindTwoLevel,
		Status: model.ApprovalStatusPending,
	}
	level2 := &model.ApprovalModel{
		ID:     uuid.New().String(),
		Level:  2,
		Kind:   model.ApprovalKindTwoLevel,
		Status: model.ApprovalStatusWaiting,
	}
	level1.NextID = &level2.ID
	level2.PrevID = &level1.ID

	subject, err := s.build(ctx, ref, []*model.ApprovalModel{level1, level2}, func(subject *Subject) error {
		superior, err := s.directory.GetSuperior(subject.SubmitterID)
		if err != nil {
			return err
		}
		if superior == "" {
			return NewValidation("提交人未配置直属上级,无法发起两级审批")
		}

		departmentID, err := s.directory.GetDepartment(subject.SubmitterID)
		if err != nil {
			return err
		}
		if departmentID == "" {
			return NewValidation("提交人未配置所属部门,无法发起两级审批")
		}
		manager, err := s.directory.GetDepartmentManager(departmentID)
		if err != nil {
			return err
		}
		if manager == "" {
			return NewValidation("提交人所在部门未配置经理,无法发起两级审批")
		}

		if superior == subject.SubmitterID || manager == subject.SubmitterID {
			return NewValidation("审批人不能是提交人本人")
		}

		level1.ApproverID = superior
		level2.ApproverID = manager
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 只通知一级审批人,二级审批在一级通过后才激活
	s.notifyPending(subject, level1.ApproverID)
	metrics.RecordChainBuilt(model.ApprovalKindTwoLevel)
	return []*model.ApprovalModel{level1, level2}, nil
}

// BuildSequential 构建顺序会审
// 按给定顺序逐位签核,首位置为 pending,其余 waiting
func (s *chainService) BuildSequential(ctx context.Context, ref SubjectRef, approverIDs []string) ([]*model.ApprovalModel, error) {
	groupID := uuid.New().String()
	approvals := make([]*model.ApprovalModel, 0, len(approverIDs))
	for i, approverID := range approverIDs {
		status := model.ApprovalStatusWaiting
		if i == 0 {
			status = model.ApprovalStatusPending
		}
		approvals = append(approvals, &model.ApprovalModel{
			ID:         uuid.New().String(),
			ApproverID: approverID,
			Sequence:   i + 1,
			GroupID:    groupID,
			Kind:       model.ApprovalKindSequential,
			Status:     status,
		})
	}
	for i := range approvals {
		if i > 0 {
			approvals[i].PrevID = &approvals[i-1].ID
		}
		if i < len(approvals)-1 {
			approvals[i].NextID = &approvals[i+1].ID
		}
	}

	subject, err := s.build(ctx, ref, approvals, func(subject *Subject) error {
		return ValidateApprovers(approverIDs, subject.SubmitterID)
	})
	if err != nil {
		return nil, err
	}

	s.notifyPending(subject, approvals[0].ApproverID)
	metrics.RecordChainBuilt(model.ApprovalKindSequential)
	return approvals, nil
}

// BuildCountersign 构建并行会签,全部成员同时置为 pending
func (s *chainService) BuildCountersign(ctx context.Context, ref SubjectRef, approverIDs []string) ([]*model.ApprovalModel, error) {
	groupID := uuid.New().String()
	approvals := make([]*model.ApprovalModel, 0, len(approverIDs))
	for _, approverID := range approverIDs {
		approvals = append(approvals, &model.ApprovalModel{
			ID:         uuid.New().String(),
			ApproverID: approverID,
			GroupID:    groupID,
			Kind:       model.ApprovalKindCountersign,
			Status:     model.ApprovalStatusPending,
		})
	}

	subject, err := s.build(ctx, ref, approvals, func(subject *Subject) error {
		return ValidateApprovers(approverIDs, subject.SubmitterID)
	})
	if err != nil {
		return nil, err
	}

	for _, approval := range approvals {
		s.notifyPending(subject, approval.ApproverID)
	}
	metrics.RecordChainBuilt(model.ApprovalKindCountersign)
	return approvals, nil
}

// build 审批链落库的公共事务
// 校验通过后,在一个可串行化事务内写入全部审批实体并将
// 审批对象置为待审批状态;任一步失败则整体回滚
func (s *chainService) build(ctx context.Context, ref SubjectRef, approvals []*model.ApprovalModel, validate func(subject *Subject) error) (*Subject, error) {
	var subject *Subject
	err := runSerializable(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		subject, err = s.subjects.Get(tx, ref.Kind, ref.ID)
		if err != nil {
			return err
		}

		// 同一对象同一时刻最多一条活跃审批链
		var active int64
		if err := subjectScopeCount(tx, ref, &active); err != nil {
			return fmt.Errorf("failed to count active approvals: %w", err)
		}
		if active > 0 {
			return NewConflict("该对象已有进行中的审批流程")
		}

		if err := validate(subject); err != nil {
			return err
		}

		now := time.Now()
		for _, approval := range approvals {
			if ref.Kind == model.SubjectKindRecord {
				approval.RecordID = &ref.ID
			} else {
				approval.DocumentID = &ref.ID
			}
			approval.CreatedAt = now
			approval.UpdatedAt = now
			if err := approval.Validate(); err != nil {
				return NewValidation(err.Error())
			}
		}
		if err := tx.Create(approvals).Error; err != nil {
			return fmt.Errorf("failed to create approvals: %w", err)
		}

		entry := &model.AuditLogModel{
			ID:          uuid.New().String(),
			ActorID:     subject.SubmitterID,
			Action:      model.AuditActionBuild,
			SubjectKind: ref.Kind,
			SubjectID:   ref.ID,
			ApprovalID:  approvals[0].ID,
			CreatedAt:   now,
		}
		if err := s.auditRepo.Save(tx, entry); err != nil {
			return fmt.Errorf("failed to save audit log: %w", err)
		}

		return s.subjects.SetStatus(tx, ref.Kind, ref.ID, awaitingStatus(ref.Kind))
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// subjectScopeCount 统计对象上未到终态的审批实体数量
func subjectScopeCount(tx *gorm.DB, ref SubjectRef, count *int64) error {
	query := tx.Model(&model.ApprovalModel{}).
		Where("status IN ?", []string{model.ApprovalStatusPending, model.ApprovalStatusWaiting})
	if ref.Kind == model.SubjectKindRecord {
		query = query.Where("record_id = ?", ref.ID)
	} else {
		query = query.Where("document_id = ?", ref.ID)
	}
	return query.Count(count).Error
}

// notifyPending 通知审批人有新的待办,分发失败只记录警告
func (s *chainService) notifyPending(subject *Subject, approverID string) {
	title := "您有新的审批待办"
	body := fmt.Sprintf("「%s」正在等待您审批", subject.Title)
	if err := s.dispatcher.Notify(approverID, model.NotificationKindPending, title, body); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": approverID,
			"subject": subject.ID,
		}).WithError(err).Warn("failed to dispatch notification")
	}
}
