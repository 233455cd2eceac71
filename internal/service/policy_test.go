package service_test

import (
	"strings"
	"testing"

	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/oaflow/workflow-gin/internal/service"
	"github.com/stretchr/testify/assert"
)

func pendingApproval(approverID string) *model.ApprovalModel {
	recordID := "rec-1"
	return &model.ApprovalModel{
		ID:         "ap-1",
		RecordID:   &recordID,
		ApproverID: approverID,
		Kind:       model.ApprovalKindSingle,
		Status:     model.ApprovalStatusPending,
	}
}

// TestAuthorize 测试审批权限检查
func TestAuthorize(t *testing.T) {
	approval := pendingApproval("u-approver")

	// 指定审批人可以处理
	assert.NoError(t, service.Authorize(approval, "u-submitter", "u-approver", model.RoleUser))

	// 其他人不能处理
	err := service.Authorize(approval, "u-submitter", "u-other", model.RoleLeader)
	assert.True(t, service.IsForbidden(err))

	// admin 可以越过审批人身份
	assert.NoError(t, service.Authorize(approval, "u-submitter", "u-admin", model.RoleAdmin))

	// 任何人不能审批自己提交的内容
	self := pendingApproval("u-submitter")
	err = service.Authorize(self, "u-submitter", "u-submitter", model.RoleAdmin)
	assert.True(t, service.IsForbidden(err))
}

// TestAuthorize_Status 测试实体状态对可处理性的约束
func TestAuthorize_Status(t *testing.T) {
	waiting := pendingApproval("u-approver")
	waiting.Status = model.ApprovalStatusWaiting
	err := service.Authorize(waiting, "u-submitter", "u-approver", model.RoleUser)
	assert.True(t, service.IsConflict(err), "waiting approval is not yet actionable")

	for _, status := range []string{
		model.ApprovalStatusApproved,
		model.ApprovalStatusRejected,
		model.ApprovalStatusCancelled,
	} {
		terminal := pendingApproval("u-approver")
		terminal.Status = status
		err := service.Authorize(terminal, "u-submitter", "u-approver", model.RoleUser)
		assert.True(t, service.IsConflict(err), "terminal approval must not be reprocessed: %s", status)
	}
}

// TestValidateResolveText 测试意见/原因文本校验
func TestValidateResolveText(t *testing.T) {
	// 驳回原因按字符计长,10~500
	assert.Error(t, service.ValidateResolveText(service.ActionReject, ""))
	assert.Error(t, service.ValidateResolveText(service.ActionReject, strings.Repeat("改", 9)))
	assert.NoError(t, service.ValidateResolveText(service.ActionReject, strings.Repeat("改", 10)))
	assert.NoError(t, service.ValidateResolveText(service.ActionReject, strings.Repeat("改", 500)))
	assert.Error(t, service.ValidateResolveText(service.ActionReject, strings.Repeat("改", 501)))

	// 中文字符按 rune 计数而非字节
	assert.NoError(t, service.ValidateResolveText(service.ActionReject, "材料不齐全请补充证明"))

	// 同意意见可以为空,上限 500
	assert.NoError(t, service.ValidateResolveText(service.ActionApprove, ""))
	assert.NoError(t, service.ValidateResolveText(service.ActionApprove, strings.Repeat("好", 500)))
	assert.Error(t, service.ValidateResolveText(service.ActionApprove, strings.Repeat("好", 501)))

	// 未知动作
	err := service.ValidateResolveText("cancel", "")
	assert.True(t, service.IsValidation(err))
}

// TestValidateApprovers 测试审批人列表校验
func TestValidateApprovers(t *testing.T) {
	assert.NoError(t, service.ValidateApprovers([]string{"u-a", "u-b"}, "u-submitter"))

	assert.Error(t, service.ValidateApprovers(nil, "u-submitter"))
	assert.Error(t, service.ValidateApprovers([]string{}, "u-submitter"))
	assert.Error(t, service.ValidateApprovers([]string{""}, "u-submitter"))
	assert.Error(t, service.ValidateApprovers([]string{"u-a", "u-a"}, "u-submitter"))
	assert.Error(t, service.ValidateApprovers([]string{"u-a", "u-submitter"}, "u-submitter"))
}
