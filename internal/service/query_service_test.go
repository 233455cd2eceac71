package service_test

import (
	"context"
	"testing"

	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newQueryService 构建审批查询服务
func newQueryService(db *gorm.DB) service.QueryService {
	return service.NewQueryService(db, service.NewSubjectStore(), service.NewDirectory(db))
}

// TestQueryService_GetChain 测试审批链查询
func TestQueryService_GetChain(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u-submitter", "张三", model.RoleUser, nil, nil)
	seedUser(t, db, "u-a", "审批甲", model.RoleUser, nil, nil)
	seedUser(t, db, "u-b", "审批乙", model.RoleUser, nil, nil)
	seedDocument(t, db, "doc-1", "年度预算", "u-submitter")

	chainSvc, _ := newChainService(db)
	_, err := chainSvc.BuildSequential(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindDocument, ID: "doc-1"},
		[]string{"u-a", "u-b"})
	require.NoError(t, err)

	querySvc := newQueryService(db)
	entries, err := querySvc.GetChain(model.SubjectKindDocument, "doc-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 按顺序排列,带审批人显示名称
	assert.Equal(t, 1, entries[0].Sequence)
	assert.Equal(t, "审批甲", entries[0].ApproverName)
	assert.Equal(t, model.ApprovalStatusPending, entries[0].Status)
	assert.Equal(t, 2, entries[1].Sequence)
	assert.Equal(t, "审批乙", entries[1].ApproverName)
	assert.Equal(t, model.ApprovalStatusWaiting, entries[1].Status)
}

// TestQueryService_GetChain_Empty 测试无审批时返回空链
func TestQueryService_GetChain_Empty(t *testing.T) {
	db := setupTestDB(t)
	querySvc := newQueryService(db)

	entries, err := querySvc.GetChain(model.SubjectKindRecord, "rec-none")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestQueryService_GetChain_LatestGraph 测试驳回重提后只返回最新一张审批图
func TestQueryService_GetChain_LatestGraph(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u-submitter", "张三", model.RoleUser, nil, nil)
	seedUser(t, db, "u-approver", "李四", model.RoleLeader, nil, nil)
	seedRecord(t, db, "rec-1", "周报", "u-submitter")

	chainSvc, _ := newChainService(db)
	approvalSvc, _ := newApprovalService(db)

	// 第一轮被驳回
	first, err := chainSvc.BuildSingleLevel(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindRecord, ID: "rec-1"}, "u-approver")
	require.NoError(t, err)
	_, err = approvalSvc.Resolve(context.Background(), first.ID, "u-approver", model.RoleLeader,
		service.ActionReject, "内容不完整,请补充进展")
	require.NoError(t, err)

	// 重新提交并发起第二轮
	second, err := chainSvc.BuildSingleLevel(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindRecord, ID: "rec-1"}, "u-approver")
	require.NoError(t, err)

	querySvc := newQueryService(db)
	entries, err := querySvc.GetChain(model.SubjectKindRecord, "rec-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, model.ApprovalStatusPending, entries[0].Status)
}

// TestQueryService_GetPendingFor 测试按角色划定的待办范围
func TestQueryService_GetPendingFor(t *testing.T) {
	db := setupTestDB(t)
	seedDepartment(t, db, "dept-1", "研发部", strPtr("u-leader"))
	seedUser(t, db, "u-leader", "部门领导", model.RoleLeader, strPtr("dept-1"), nil)
	seedUser(t, db, "u-superior", "李组长", model.RoleUser, nil, nil)
	seedUser(t, db, "u-submitter", "张三", model.RoleUser, strPtr("dept-1"), strPtr("u-superior"))
	seedUser(t, db, "u-outsider", "外部门审批人", model.RoleUser, nil, nil)
	seedRecord(t, db, "rec-1", "周报", "u-submitter")

	chainSvc, _ := newChainService(db)
	approval, err := chainSvc.BuildSingleLevel(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindRecord, ID: "rec-1"}, "u-outsider")
	require.NoError(t, err)

	querySvc := newQueryService(db)

	// 指定审批人看到指派给自己的待办
	entries, total, err := querySvc.GetPendingFor("u-outsider", model.RoleUser, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, approval.ID, entries[0].ID)

	// 直属上级看到下属提交的待办
	entries, total, err = querySvc.GetPendingFor("u-superior", model.RoleUser, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, approval.ID, entries[0].ID)

	// 部门领导看到本部门成员提交的待办
	entries, total, err = querySvc.GetPendingFor("u-leader", model.RoleLeader, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)

	// admin 看到全部待办
	entries, total, err = querySvc.GetPendingFor("anyone", model.RoleAdmin, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)

	// 无关用户看不到
	entries, total, err = querySvc.GetPendingFor("u-nobody", model.RoleUser, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, entries)
}

// TestQueryService_GetPendingFor_LeaderWithoutDepartment 测试未配置部门且无指派的领导返回空页
func TestQueryService_GetPendingFor_LeaderWithoutDepartment(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u-leader", "部门领导", model.RoleLeader, nil, nil)

	querySvc := newQueryService(db)
	entries, total, err := querySvc.GetPendingFor("u-leader", model.RoleLeader, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, entries)
}

// TestQueryService_GetPendingFor_LeaderAssignedOutsideDepartment 测试领导被指派
// 跨部门审批时待办可见
func TestQueryService_GetPendingFor_LeaderAssignedOutsideDepartment(t *testing.T) {
	db := setupTestDB(t)
	seedDepartment(t, db, "dept-1", "研发部", strPtr("u-leader"))
	seedDepartment(t, db, "dept-2", "市场部", nil)
	seedUser(t, db, "u-leader", "部门领导", model.RoleLeader, strPtr("dept-1"), nil)
	seedUser(t, db, "u-outsider", "外部门张三", model.RoleUser, strPtr("dept-2"), nil)
	seedRecord(t, db, "rec-1", "跨部门周报", "u-outsider")

	chainSvc, _ := newChainService(db)
	approval, err := chainSvc.BuildSingleLevel(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindRecord, ID: "rec-1"}, "u-leader")
	require.NoError(t, err)

	// 提交人不在本部门,指派给领导的待办仍然可见
	querySvc := newQueryService(db)
	entries, total, err := querySvc.GetPendingFor("u-leader", model.RoleLeader, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, approval.ID, entries[0].ID)
}

// TestQueryService_GetPendingFor_LeaderUnionDedup 测试指派与部门两个来源重合时去重
func TestQueryService_GetPendingFor_LeaderUnionDedup(t *testing.T) {
	db := setupTestDB(t)
	seedDepartment(t, db, "dept-1", "研发部", strPtr("u-leader"))
	seedUser(t, db, "u-leader", "部门领导", model.RoleLeader, strPtr("dept-1"), nil)
	seedUser(t, db, "u-submitter", "张三", model.RoleUser, strPtr("dept-1"), nil)
	seedRecord(t, db, "rec-1", "周报", "u-submitter")

	chainSvc, _ := newChainService(db)
	approval, err := chainSvc.BuildSingleLevel(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindRecord, ID: "rec-1"}, "u-leader")
	require.NoError(t, err)

	// 既指派给领导又由本部门成员提交,只出现一次
	querySvc := newQueryService(db)
	entries, total, err := querySvc.GetPendingFor("u-leader", model.RoleLeader, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, approval.ID, entries[0].ID)
}

// TestQueryService_GetHistory 测试审批历史查询
func TestQueryService_GetHistory(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u-submitter", "张三", model.RoleUser, nil, nil)
	seedUser(t, db, "u-approver", "李四", model.RoleLeader, nil, nil)
	seedRecord(t, db, "rec-1", "周报", "u-submitter")

	chainSvc, _ := newChainService(db)
	approvalSvc, _ := newApprovalService(db)
	approval, err := chainSvc.BuildSingleLevel(context.Background(),
		service.SubjectRef{Kind: model.SubjectKindRecord, ID: "rec-1"}, "u-approver")
	require.NoError(t, err)

	querySvc := newQueryService(db)

	// 处理前历史为空
	entries, total, err := querySvc.GetHistory("u-approver", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, entries)

	_, err = approvalSvc.Resolve(context.Background(), approval.ID, "u-approver", model.RoleLeader,
		service.ActionApprove, "同意")
	require.NoError(t, err)

	// 处理后出现在历史里
	entries, total, err = querySvc.GetHistory("u-approver", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ApprovalStatusApproved, entries[0].Status)
	assert.Equal(t, "同意", entries[0].Comment)
	assert.NotNil(t, entries[0].ResolvedAt)
}
