package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oaflow/workflow-gin/internal/metrics"
	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/notify"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/oaflow/workflow-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApprovalService 审批流转服务接口
// Resolve 是统一入口,按审批类型分派到对应的流转逻辑;
// 四个 ApproveXxx 包装方法先校验实体类型再走同一条流转路径,
// 结果与直接调用 Resolve 完全一致
type ApprovalService interface {
	Resolve(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error)
	ApproveLevel1(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error)
	ApproveLevel2(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error)
	ApproveSequential(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error)
	ApproveCountersign(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error)
}

// notice 事务提交后才分发的通知
type notice struct {
	userID string
	kind   string
	title  string
	body   string
}

// approvalService 审批流转服务实现
type approvalService struct {
	db         *gorm.DB
	subjects   SubjectStore
	dispatcher notify.Dispatcher
	auditRepo  repository.AuditLogRepository
	logger     *logrus.Logger
}

// NewApprovalService 创建审批流转服务
func NewApprovalService(db *gorm.DB, subjects SubjectStore, dispatcher notify.Dispatcher, logger *logrus.Logger) ApprovalService {
	return &approvalService{
		db:         db,
		subjects:   subjects,
		dispatcher: dispatcher,
		auditRepo:  repository.NewAuditLogRepository(db),
		logger:     logger,
	}
}

// Resolve 处理一次审批动作(同意/驳回)
// 权限检查、文本校验、实体终态写入、同组/同链联动和审批对象
// 状态更新在一个可串行化事务内完成,通知在提交后分发
func (s *approvalService) Resolve(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error) {
	return s.resolve(ctx, approvalID, actorID, actorRole, action, text, nil)
}

// ApproveLevel1 处理两级审批的一级签核
func (s *approvalService) ApproveLevel1(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error) {
	return s.resolve(ctx, approvalID, actorID, actorRole, action, text, expectKindLevel(model.ApprovalKindTwoLevel, 1))
}

// ApproveLevel2 处理两级审批的二级签核
func (s *approvalService) ApproveLevel2(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error) {
	return s.resolve(ctx, approvalID, actorID, actorRole, action, text, expectKindLevel(model.ApprovalKindTwoLevel, 2))
}

// ApproveSequential 处理顺序会审的签核
func (s *approvalService) ApproveSequential(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error) {
	return s.resolve(ctx, approvalID, actorID, actorRole, action, text, expectKindLevel(model.ApprovalKindSequential, 0))
}

// ApproveCountersign 处理并行会签的签核
func (s *approvalService) ApproveCountersign(ctx context.Context, approvalID, actorID, actorRole, action, text string) (*model.ApprovalModel, error) {
	return s.resolve(ctx, approvalID, actorID, actorRole, action, text, expectKindLevel(model.ApprovalKindCountersign, 0))
}

// expectKindLevel 生成类型/级别校验函数,level 为 0 时不校验级别
func expectKindLevel(kind string, level int) func(*model.ApprovalModel) error {
	return func(approval *model.ApprovalModel) error {
		if approval.Kind != kind {
			return NewValidation("审批类型不匹配")
		}
		if level > 0 && approval.Level != level {
			return NewValidation("审批级别不匹配")
		}
		return nil
	}
}

func (s *approvalService) resolve(ctx context.Context, approvalID, actorID, actorRole, action, text string, expect func(*model.ApprovalModel) error) (*model.ApprovalModel, error) {
	var approval model.ApprovalModel
	var notices []notice

	err := runSerializable(ctx, s.db, func(tx *gorm.DB) error {
		notices = notices[:0]

		// 1. 事务内重读实体状态,外部查询到的视图可能已过期
		if err := tx.Where("id = ?", approvalID).First(&approval).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("审批不存在")
			}
			return fmt.Errorf("failed to get approval: %w", err)
		}
		if expect != nil {
			if err := expect(&approval); err != nil {
				return err
			}
		}

		subject, err := s.subjects.Get(tx, approval.SubjectKind(), approval.SubjectID())
		if err != nil {
			return err
		}

		// 2. 权限与输入校验
		if err := Authorize(&approval, subject.SubmitterID, actorID, actorRole); err != nil {
			return err
		}
		if err := ValidateResolveText(action, text); err != nil {
			return err
		}

		// 长度校验针对原始输入,落库和展示用清理后的文本
		clean := utils.SanitizeString(text)

		// 3. 实体进入终态
		now := time.Now()
		approval.ResolvedAt = &now
		if action == ActionApprove {
			approval.Status = model.ApprovalStatusApproved
			approval.Comment = clean
		} else {
			approval.Status = model.ApprovalStatusRejected
			approval.RejectReason = clean
		}
		if err := tx.Save(&approval).Error; err != nil {
			return fmt.Errorf("failed to save approval: %w", err)
		}

		entry := &model.AuditLogModel{
			ID:          uuid.New().String(),
			ActorID:     actorID,
			Action:      action,
			SubjectKind: approval.SubjectKind(),
			SubjectID:   approval.SubjectID(),
			ApprovalID:  approval.ID,
			Detail:      clean,
			CreatedAt:   now,
		}
		if err := s.auditRepo.Save(tx, entry); err != nil {
			return fmt.Errorf("failed to save audit log: %w", err)
		}

		// 4. 按审批类型分派联动逻辑
		if action == ActionReject {
			notices, err = s.continueRejected(tx, &approval, subject, clean, notices)
		} else {
			switch approval.Kind {
			case model.ApprovalKindSingle:
				notices, err = s.finishSubject(tx, subject, notices)
			case model.ApprovalKindTwoLevel:
				notices, err = s.continueChain(tx, &approval, subject, notices)
			case model.ApprovalKindSequential:
				notices, err = s.continueChain(tx, &approval, subject, notices)
			case model.ApprovalKindCountersign:
				notices, err = s.continueCountersign(tx, &approval, subject, notices)
			default:
				err = NewValidation("未知的审批类型: " + approval.Kind)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(notices)
	metrics.RecordResolution(action, approval.Kind)
	return &approval, nil
}

// continueChain 两级审批/顺序会审通过后的链式推进
// 存在后继则激活后继(waiting → pending),否则整链完成
func (s *approvalService) continueChain(tx *gorm.DB, approval *model.ApprovalModel, subject *Subject, notices []notice) ([]notice, error) {
	if approval.NextID == nil {
		return s.finishSubject(tx, subject, notices)
	}

	var next model.ApprovalModel
	if err := tx.Where("id = ?", *approval.NextID).First(&next).Error; err != nil {
		return notices, fmt.Errorf("failed to get next approval: %w", err)
	}
	next.Status = model.ApprovalStatusPending
	if err := tx.Save(&next).Error; err != nil {
		return notices, fmt.Errorf("failed to activate next approval: %w", err)
	}

	// 两级审批推进到二级时,工作记录状态同步为待二级审批
	if approval.Kind == model.ApprovalKindTwoLevel && subject.Kind == model.SubjectKindRecord {
		if err := s.subjects.SetStatus(tx, subject.Kind, subject.ID, model.RecordStatusPendingLevel2); err != nil {
			return notices, err
		}
	}

	notices = append(notices, notice{
		userID: next.ApproverID,
		kind:   model.NotificationKindPending,
		title:  "您有新的审批待办",
		body:   fmt.Sprintf("「%s」正在等待您审批", subject.Title),
	})
	return notices, nil
}

// continueCountersign 并行会签通过后的判定
// 只有同组全部成员都已通过时才归档对象,否则保持现状等待其余成员
func (s *approvalService) continueCountersign(tx *gorm.DB, approval *model.ApprovalModel, subject *Subject, notices []notice) ([]notice, error) {
	var unapproved int64
	if err := tx.Model(&model.ApprovalModel{}).
		Where("group_id = ? AND status <> ?", approval.GroupID, model.ApprovalStatusApproved).
		Count(&unapproved).Error; err != nil {
		return notices, fmt.Errorf("failed to count countersign group: %w", err)
	}
	if unapproved > 0 {
		return notices, nil
	}
	return s.finishSubject(tx, subject, notices)
}

// continueRejected 任一类型驳回后的联动
// 同组/同链中未到终态的兄弟实体批量作废,对象回到草稿态
func (s *approvalService) continueRejected(tx *gorm.DB, approval *model.ApprovalModel, subject *Subject, reason string, notices []notice) ([]notice, error) {
	if approval.GroupID != "" {
		result := tx.Model(&model.ApprovalModel{}).
			Where("group_id = ? AND id <> ? AND status IN ?",
				approval.GroupID, approval.ID,
				[]string{model.ApprovalStatusPending, model.ApprovalStatusWaiting}).
			Update("status", model.ApprovalStatusCancelled)
		if result.Error != nil {
			return notices, fmt.Errorf("failed to cancel siblings: %w", result.Error)
		}
		metrics.RecordCancellations(int(result.RowsAffected))
	} else if approval.Kind == model.ApprovalKindTwoLevel {
		// 两级审批没有 group_id,沿链作废另一级
		result := tx.Model(&model.ApprovalModel{}).
			Where("(prev_id = ? OR next_id = ?) AND status IN ?",
				approval.ID, approval.ID,
				[]string{model.ApprovalStatusPending, model.ApprovalStatusWaiting}).
			Update("status", model.ApprovalStatusCancelled)
		if result.Error != nil {
			return notices, fmt.Errorf("failed to cancel linked approval: %w", result.Error)
		}
		metrics.RecordCancellations(int(result.RowsAffected))
	}

	if err := s.subjects.SetStatus(tx, subject.Kind, subject.ID, rejectedStatus(subject.Kind)); err != nil {
		return notices, err
	}

	notices = append(notices, notice{
		userID: subject.SubmitterID,
		kind:   model.NotificationKindRejected,
		title:  "审批被驳回",
		body:   fmt.Sprintf("「%s」被驳回: %s", subject.Title, reason),
	})
	return notices, nil
}

// finishSubject 整个审批图全部通过,对象进入通过终态
func (s *approvalService) finishSubject(tx *gorm.DB, subject *Subject, notices []notice) ([]notice, error) {
	if err := s.subjects.SetStatus(tx, subject.Kind, subject.ID, approvedStatus(subject.Kind)); err != nil {
		return notices, err
	}
	notices = append(notices, notice{
		userID: subject.SubmitterID,
		kind:   model.NotificationKindApproved,
		title:  "审批通过",
		body:   fmt.Sprintf("「%s」已全部审批通过", subject.Title),
	})
	return notices, nil
}

// dispatch 提交后分发通知,失败只记录警告,不影响已落库的审批结果
func (s *approvalService) dispatch(notices []notice) {
	for _, n := range notices {
		if err := s.dispatcher.Notify(n.userID, n.kind, n.title, n.body); err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id": n.userID,
				"kind":    n.kind,
			}).WithError(err).Warn("failed to dispatch notification")
		}
	}
}
