package gateway

import (
	"errors"
	"fmt"
)

// ErrRemote 所有经网关暴露的失败的基础错误类型。
// 传输层失败与服务端结构化错误统一折叠为这一种错误。
var ErrRemote = errors.New("远程服务调用失败")

// RemoteError 携带操作名和归一化消息的远程调用错误
type RemoteError struct {
	Op      string // 远程操作名，例如 "upload-document"
	Message string // 归一化后的错误消息，直接用于展示
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (操作:%s): %s", ErrRemote, e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError 构造远程调用错误
func NewRemoteError(op, message string) error {
	return &RemoteError{
		Op:      op,
		Message: message,
	}
}

// NormalizedMessage 提取用于展示的错误消息：
// RemoteError返回归一化消息本身，其他错误返回Error()
func NormalizedMessage(err error) string {
	if err == nil {
		return ""
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Message
	}
	return err.Error()
}
