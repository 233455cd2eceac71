package service

import (
	"unicode/utf8"

	"github.com/oaflow/workflow-gin/internal/model"
)

// 审批动作常量
const (
	ActionApprove = "approve" // 同意
	ActionReject  = "reject"  // 驳回
)

// 审批意见/驳回原因长度限制(按字符计,不按字节)
const (
	rejectReasonMinLen = 10
	resolveTextMaxLen  = 500
)

// Authorize 审批权限检查
// 依次检查: 实体必须处于 pending 状态;操作人必须是指定审批人
// (admin 可越过审批人身份);任何人(含 admin)不得审批自己提交的对象
func Authorize(approval *model.ApprovalModel, submitterID, actorID, actorRole string) error {
	switch approval.Status {
	case model.ApprovalStatusPending:
		// 可处理
	case model.ApprovalStatusWaiting:
		return NewConflict("还未轮到该审批处理")
	default:
		return NewConflict("该审批已处理,不能重复操作")
	}

	if actorID != approval.ApproverID && actorRole != model.RoleAdmin {
		return NewForbidden("只有指定审批人可以处理该审批")
	}

	if actorID == submitterID {
		return NewForbidden("不能审批自己提交的内容")
	}

	return nil
}

// ValidateResolveText 审批意见/驳回原因校验
// 驳回原因必须为 10~500 个字符;审批意见可以为空,最多 500 个字符
func ValidateResolveText(action, text string) error {
	length := utf8.RuneCountInString(text)

	switch action {
	case ActionReject:
		if length < rejectReasonMinLen {
			return NewValidation("驳回原因至少10个字符")
		}
		if length > resolveTextMaxLen {
			return NewValidation("驳回原因最多500个字符")
		}
	case ActionApprove:
		if length > resolveTextMaxLen {
			return NewValidation("审批意见最多500个字符")
		}
	default:
		return NewValidation("不支持的审批动作: " + action)
	}

	return nil
}

// ValidateApprovers 审批人列表校验,用于顺序会审和并行会签
// 列表不能为空、不能重复、不能包含提交人
func ValidateApprovers(approverIDs []string, submitterID string) error {
	if len(approverIDs) == 0 {
		return NewValidation("审批人列表不能为空")
	}

	seen := make(map[string]bool, len(approverIDs))
	for _, id := range approverIDs {
		if id == "" {
			return NewValidation("审批人 ID 不能为空")
		}
		if id == submitterID {
			return NewValidation("审批人不能包含提交人本人")
		}
		if seen[id] {
			return NewValidation("审批人列表不能重复")
		}
		seen[id] = true
	}

	return nil
}
