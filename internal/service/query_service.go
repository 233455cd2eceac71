package service

import (
	"fmt"

	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/repository"
	"gorm.io/gorm"
)

// QueryService 审批查询服务接口
// 查询不加锁,相对进行中的事务可能读到略旧的视图;
// 引擎在 Resolve 内部会重新校验状态,调用方不应假设
// 查询与后续处理之间的原子性
type QueryService interface {
	GetChain(kind, subjectID string) ([]*ChainEntry, error)
	GetPendingFor(actorID, actorRole string, page, pageSize int) ([]*ChainEntry, int64, error)
	GetHistory(actorID string, page, pageSize int) ([]*ChainEntry, int64, error)
}

// ChainEntry 审批实体视图,附带审批人显示名称
type ChainEntry struct {
	ID           string  `json:"id"`
	SubjectKind  string  `json:"subject_kind"`
	SubjectID    string  `json:"subject_id"`
	ApproverID   string  `json:"approver_id"`
	ApproverName string  `json:"approver_name"`
	Level        int     `json:"level,omitempty"`
	Sequence     int     `json:"sequence,omitempty"`
	GroupID      string  `json:"group_id,omitempty"`
	Kind         string  `json:"kind"`
	Status       string  `json:"status"`
	Comment      string  `json:"comment,omitempty"`
	RejectReason string  `json:"reject_reason,omitempty"`
	ResolvedAt   *string `json:"resolved_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// queryService 审批查询服务实现
type queryService struct {
	db           *gorm.DB
	approvalRepo repository.ApprovalRepository
	userRepo     repository.UserRepository
	subjects     SubjectStore
	directory    Directory
}

// NewQueryService 创建审批查询服务
func NewQueryService(db *gorm.DB, subjects SubjectStore, directory Directory) QueryService {
	return &queryService{
		db:           db,
		approvalRepo: repository.NewApprovalRepository(db),
		userRepo:     repository.NewUserRepository(db),
		subjects:     subjects,
		directory:    directory,
	}
}

// GetChain 返回审批对象最近一条审批图的全部实体,按级别/顺序排列
func (s *queryService) GetChain(kind, subjectID string) ([]*ChainEntry, error) {
	approvals, err := s.approvalRepo.FindBySubject(kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	if len(approvals) == 0 {
		return []*ChainEntry{}, nil
	}

	// 历史上可能存在多条审批图(驳回后重新提交),取创建时间最晚的一条:
	// 有分组的取同组全部,两级审批沿链取相邻两条,单级取单条
	latest := approvals[0]
	for _, approval := range approvals {
		if approval.CreatedAt.After(latest.CreatedAt) {
			latest = approval
		}
	}

	graph := make([]*model.ApprovalModel, 0, len(approvals))
	switch {
	case latest.GroupID != "":
		for _, approval := range approvals {
			if approval.GroupID == latest.GroupID {
				graph = append(graph, approval)
			}
		}
	case latest.Kind == model.ApprovalKindTwoLevel:
		ids := map[string]bool{latest.ID: true}
		if latest.PrevID != nil {
			ids[*latest.PrevID] = true
		}
		if latest.NextID != nil {
			ids[*latest.NextID] = true
		}
		for _, approval := range approvals {
			if ids[approval.ID] {
				graph = append(graph, approval)
			}
		}
	default:
		graph = append(graph, latest)
	}

	return s.enrich(graph)
}

// GetPendingFor 返回操作人可处理的待办审批,按角色划定范围
// admin 可见全部;leader 可见指派给自己的以及本部门成员提交的;
// 普通用户可见指派给自己的以及直接下属提交的
func (s *queryService) GetPendingFor(actorID, actorRole string, page, pageSize int) ([]*ChainEntry, int64, error) {
	var candidates []*model.ApprovalModel

	switch actorRole {
	case model.RoleAdmin:
		pending, err := s.approvalRepo.FindPending()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list pending approvals: %w", err)
		}
		candidates = pending

	case model.RoleLeader:
		// 指派给自己的待办,提交人不在本部门也要可见
		own, err := s.approvalRepo.FindPendingByApprover(actorID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list pending approvals: %w", err)
		}
		candidates = own

		// 本部门成员提交的待办
		departmentID, err := s.directory.GetDepartment(actorID)
		if err != nil {
			return nil, 0, err
		}
		if departmentID != "" {
			members, err := s.userRepo.FindByDepartment(departmentID)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to list department members: %w", err)
			}
			memberSet := make(map[string]bool, len(members))
			for _, member := range members {
				memberSet[member.ID] = true
			}
			filtered, err := s.pendingBySubmitters(memberSet)
			if err != nil {
				return nil, 0, err
			}
			seen := make(map[string]bool, len(candidates))
			for _, approval := range candidates {
				seen[approval.ID] = true
			}
			for _, approval := range filtered {
				if !seen[approval.ID] {
					candidates = append(candidates, approval)
				}
			}
		}

	default:
		// 指派给自己的待办
		own, err := s.approvalRepo.FindPendingByApprover(actorID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list pending approvals: %w", err)
		}
		candidates = own

		// 直接下属提交的待办
		subordinates, err := s.directory.GetSubordinates(actorID)
		if err != nil {
			return nil, 0, err
		}
		if len(subordinates) > 0 {
			subordinateSet := make(map[string]bool, len(subordinates))
			for _, id := range subordinates {
				subordinateSet[id] = true
			}
			delegated, err := s.pendingBySubmitters(subordinateSet)
			if err != nil {
				return nil, 0, err
			}
			seen := make(map[string]bool, len(candidates))
			for _, approval := range candidates {
				seen[approval.ID] = true
			}
			for _, approval := range delegated {
				if !seen[approval.ID] {
					candidates = append(candidates, approval)
				}
			}
		}
	}

	total := int64(len(candidates))
	entries, err := s.enrich(paginate(candidates, page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// GetHistory 分页返回操作人已处理的审批,最新在前
func (s *queryService) GetHistory(actorID string, page, pageSize int) ([]*ChainEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	approvals, total, err := s.approvalRepo.FindResolvedByApprover(actorID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list resolved approvals: %w", err)
	}
	entries, err := s.enrich(approvals)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// pendingBySubmitters 过滤出提交人在给定集合内的待办审批
func (s *queryService) pendingBySubmitters(submitters map[string]bool) ([]*model.ApprovalModel, error) {
	pending, err := s.approvalRepo.FindPending()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	filtered := make([]*model.ApprovalModel, 0, len(pending))
	for _, approval := range pending {
		subject, err := s.subjects.Get(s.db, approval.SubjectKind(), approval.SubjectID())
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if submitters[subject.SubmitterID] {
			filtered = append(filtered, approval)
		}
	}
	return filtered, nil
}

// enrich 将审批实体转换为视图并补充审批人显示名称
func (s *queryService) enrich(approvals []*model.ApprovalModel) ([]*ChainEntry, error) {
	ids := make([]string, 0, len(approvals))
	seen := make(map[string]bool, len(approvals))
	for _, approval := range approvals {
		if !seen[approval.ApproverID] {
			seen[approval.ApproverID] = true
			ids = append(ids, approval.ApproverID)
		}
	}
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvers: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.Name
	}

	entries := make([]*ChainEntry, 0, len(approvals))
	for _, approval := range approvals {
		entry := &ChainEntry{
			ID:           approval.ID,
			SubjectKind:  approval.SubjectKind(),
			SubjectID:    approval.SubjectID(),
			ApproverID:   approval.ApproverID,
			ApproverName: names[approval.ApproverID],
			Level:        approval.Level,
			Sequence:     approval.Sequence,
			GroupID:      approval.GroupID,
			Kind:         approval.Kind,
			Status:       approval.Status,
			Comment:      approval.Comment,
			RejectReason: approval.RejectReason,
			CreatedAt:    approval.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if approval.ResolvedAt != nil {
			resolved := approval.ResolvedAt.Format("2006-01-02 15:04:05")
			entry.ResolvedAt = &resolved
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// paginate 对内存中的候选列表做分页
func paginate(approvals []*model.ApprovalModel, page, pageSize int) []*model.ApprovalModel {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(approvals) {
		return []*model.ApprovalModel{}
	}
	end := start + pageSize
	if end > len(approvals) {
		end = len(approvals)
	}
	return approvals[start:end]
}
