package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

// 校验错误
var (
	ErrEmptyID         = errors.New("ID cannot be empty")
	ErrIDTooLong       = errors.New("ID is too long")
	ErrInvalidIDFormat = errors.New("ID can only contain letters, digits, hyphens and underscores")
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID 验证实体 ID 格式
// 审批、对象、通知的 ID 都是 UUID 或业务编号,只允许
// 字母、数字、连字符、下划线
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(id) > 64 {
		return ErrIDTooLong
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// SanitizeString 清理字符串，移除或转义危险字符
func SanitizeString(input string) string {
	// 1. HTML 转义，防止 XSS
	sanitized := html.EscapeString(input)

	// 2. 移除控制字符（除了换行符和制表符）
	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
