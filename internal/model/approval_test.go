package model_test

import (
	"testing"

	"github.com/oaflow/workflow-gin/internal/model"
	"github.com/stretchr/testify/assert"
)

// TestApprovalModel_Validate 测试审批实体校验
func TestApprovalModel_Validate(t *testing.T) {
	recordID := "rec-1"
	documentID := "doc-1"

	valid := &model.ApprovalModel{
		ID:         "ap-1",
		RecordID:   &recordID,
		ApproverID: "u-1",
		Kind:       model.ApprovalKindSingle,
		Status:     model.ApprovalStatusPending,
	}
	assert.NoError(t, valid.Validate())

	// 对象引用必须恰好设置一个
	neither := *valid
	neither.RecordID = nil
	assert.Error(t, neither.Validate())

	both := *valid
	both.DocumentID = &documentID
	assert.Error(t, both.Validate())

	missingApprover := *valid
	missingApprover.ApproverID = ""
	assert.Error(t, missingApprover.Validate())
}

// TestApprovalModel_Subject 测试对象引用辅助方法
func TestApprovalModel_Subject(t *testing.T) {
	recordID := "rec-1"
	documentID := "doc-1"

	record := &model.ApprovalModel{RecordID: &recordID}
	assert.Equal(t, model.SubjectKindRecord, record.SubjectKind())
	assert.Equal(t, "rec-1", record.SubjectID())

	document := &model.ApprovalModel{DocumentID: &documentID}
	assert.Equal(t, model.SubjectKindDocument, document.SubjectKind())
	assert.Equal(t, "doc-1", document.SubjectID())
}

// TestApprovalModel_IsTerminal 测试终态判断
func TestApprovalModel_IsTerminal(t *testing.T) {
	cases := map[string]bool{
		model.ApprovalStatusPending:   false,
		model.ApprovalStatusWaiting:   false,
		model.ApprovalStatusApproved:  true,
		model.ApprovalStatusRejected:  true,
		model.ApprovalStatusCancelled: true,
	}
	for status, want := range cases {
		approval := &model.ApprovalModel{Status: status}
		assert.Equal(t, want, approval.IsTerminal(), "status %s", status)
	}
}
