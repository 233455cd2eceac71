package repository_test

import (
	"testing"
	"time"

	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedAuditLog 写入一条审计日志
func seedAuditLog(t *testing.T, repo repository.AuditLogRepository, id, actorID, action, kind, subjectID string, at time.Time) {
	err := repo.Save(nil, &model.AuditLogModel{
		ID:          id,
		ActorID:     actorID,
		Action:      action,
		SubjectKind: kind,
		SubjectID:   subjectID,
		ApprovalID:  "ap-1",
		CreatedAt:   at,
	})
	require.NoError(t, err)
}

// TestAuditLogRepository_FindBySubject 测试按审批对象查询审计轨迹
func TestAuditLogRepository_FindBySubject(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := repository.NewAuditLogRepository(db)

	base := time.Now()
	seedAuditLog(t, repo, "al-1", "u-1", model.AuditActionBuild, model.SubjectKindRecord, "r-1", base)
	seedAuditLog(t, repo, "al-2", "u-2", model.AuditActionApprove, model.SubjectKindRecord, "r-1", base.Add(time.Second))
	seedAuditLog(t, repo, "al-3", "u-3", model.AuditActionBuild, model.SubjectKindDocument, "d-1", base.Add(2*time.Second))

	logs, err := repo.FindBySubject(model.SubjectKindRecord, "r-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// 最新在前
	assert.Equal(t, "al-2", logs[0].ID)
	assert.Equal(t, model.AuditActionApprove, logs[0].Action)
	assert.Equal(t, "al-1", logs[1].ID)

	// 不同对象互不可见
	logs, err = repo.FindBySubject(model.SubjectKindDocument, "d-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "al-3", logs[0].ID)
}

// TestAuditLogRepository_FindByActor 测试按操作人查询审计日志
func TestAuditLogRepository_FindByActor(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := repository.NewAuditLogRepository(db)

	base := time.Now()
	seedAuditLog(t, repo, "al-1", "u-1", model.AuditActionBuild, model.SubjectKindRecord, "r-1", base)
	seedAuditLog(t, repo, "al-2", "u-1", model.AuditActionReject, model.SubjectKindDocument, "d-1", base.Add(time.Second))
	seedAuditLog(t, repo, "al-3", "u-2", model.AuditActionApprove, model.SubjectKindRecord, "r-1", base.Add(2*time.Second))

	logs, err := repo.FindByActor("u-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "al-2", logs[0].ID)
	assert.Equal(t, "al-1", logs[1].ID)

	logs, err = repo.FindByActor("u-missing")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

// TestAuditLogRepository_SaveInTx 测试事务内写入随事务回滚
func TestAuditLogRepository_SaveInTx(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := repository.NewAuditLogRepository(db)

	tx := db.Begin()
	require.NoError(t, repo.Save(tx, &model.AuditLogModel{
		ID:          "al-rollback",
		ActorID:     "u-1",
		Action:      model.AuditActionBuild,
		SubjectKind: model.SubjectKindRecord,
		SubjectID:   "r-1",
		CreatedAt:   time.Now(),
	}))
	tx.Rollback()

	logs, err := repo.FindBySubject(model.SubjectKindRecord, "r-1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
