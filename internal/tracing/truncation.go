package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大字段长度
	DefaultMaxLength = 200

	// MaxChatLength 聊天消息最大长度
	MaxChatLength = 150

	// MaxJDLength 岗位描述文本最大长度
	MaxJDLength = 150

	// MaxErrorBodyLength 服务端错误响应体最大长度
	MaxErrorBodyLength = 300
)

// maskPIILookup 需要掩码处理的关键字映射
var maskPIILookup = map[string]bool{
	"email":    true,
	"phone":    true,
	"password": true,
	"address":  true,
	"地址":       true,
	"name":     true,
	"姓名":       true,
	"secret":   true,
	"token":    true,
}

// SafeFieldValue 确保日志字段值安全，不包含敏感信息
// 1. 如果字段名命中敏感关键字，返回掩码处理后的值
// 2. 如果长度超过maxLength，则截断并添加省略号
func SafeFieldValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}

	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)

	if length <= 1 {
		return "*"
	}
	if length <= 4 {
		if length == 2 {
			return string(runes[0:1]) + "*"
		}
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}

	// 较长的值（邮箱、电话等）保留首尾各2个字符
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString 截断字符串，并在截断时添加省略号
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}

	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeChatMessage 安全处理聊天消息内容
func SafeChatMessage(content string) string {
	return TruncateString(content, MaxChatLength)
}

// SafeJDText 安全处理岗位描述文本
func SafeJDText(text string) string {
	return TruncateString(text, MaxJDLength)
}

// SafeErrorBody 安全处理服务端错误响应体
func SafeErrorBody(body string) string {
	return TruncateString(body, MaxErrorBodyLength)
}
