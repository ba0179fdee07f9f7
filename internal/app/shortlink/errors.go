package shortlink

import "errors"

// ErrShorten 用于 errors.Is 判断"短链没有生成出来"，不关心具体原因。
var ErrShorten = errors.New("shorten failed")

// DefaultServiceMessage 是服务端没有给出错误信息时展示给用户的文本。
const DefaultServiceMessage = "Failed to generate short link"

// ServiceError 统一表示网络失败、非 2xx 状态和响应体缺字段。
// 内部不重试，是否重试由调用方决定。
type ServiceError struct {
	Status  int    // HTTP 状态码；网络失败时为 0
	Message string // 展示给用户的文本
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return DefaultServiceMessage
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrShorten }

