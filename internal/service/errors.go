package service

import "errors"

// 错误分类常量
const (
	CodeNotFound   = "not_found"  // 审批对象或审批实体不存在
	CodeValidation = "validation" // 输入不合法
	CodeConflict   = "conflict"   // 审批实体不处于可处理状态
	CodeForbidden  = "forbidden"  // 无权操作
)

// Error 审批引擎业务错误
// 四类错误均同步返回调用方,引擎自身不做重试
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewNotFound 创建"不存在"错误
func NewNotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// NewValidation 创建"输入不合法"错误
func NewValidation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// NewConflict 创建"状态冲突"错误
func NewConflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// NewForbidden 创建"无权操作"错误
func NewForbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// codeOf 提取业务错误分类,非业务错误返回空字符串
func codeOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ""
}

// IsNotFound 判断是否为"不存在"错误
func IsNotFound(err error) bool {
	return codeOf(err) == CodeNotFound
}

// IsValidation 判断是否为"输入不合法"错误
func IsValidation(err error) bool {
	return codeOf(err) == CodeValidation
}

// IsConflict 判断是否为"状态冲突"错误
func IsConflict(err error) bool {
	return codeOf(err) == CodeConflict
}

// IsForbidden 判断是否为"无权操作"错误
func IsForbidden(err error) bool {
	return codeOf(err) == CodeForbidden
}
