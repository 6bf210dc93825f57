package workflow

import (
	"errors"
	"fmt"
)

// ErrValidation 本地校验失败的基础错误类型。
// 此类错误在发起网络调用之前产生，不会到达网关。
var ErrValidation = errors.New("本地校验失败")

// ValidationError 携带字段名和说明的本地校验错误
type ValidationError struct {
	Field   string // 出错的入参，例如 "file"、"message"
	Message string // 面向用户的说明
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 构造本地校验错误
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Status 四个工作流共享的状态形状。
// IsLoading 与终态错误互斥；新操作开始时会先清空上一次的错误。
type Status struct {
	IsLoading bool   `json:"is_loading"`
	Err       string `json:"error,omitempty"` // 空串表示无错误
}
