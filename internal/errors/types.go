package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"

	// 验证错误
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeMissingConfig    ErrorCode = "MISSING_CONFIG"

	// 外部服务错误：blob存储、向量索引、嵌入/生成模型不可用
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"

	// 文档处理错误
	ErrCodeInvalidFileFormat ErrorCode = "INVALID_FILE_FORMAT"
	ErrCodeUploadFailed      ErrorCode = "UPLOAD_FAILED"
	ErrCodeJobFailed         ErrorCode = "JOB_FAILED"
	ErrCodeEmptyDocument     ErrorCode = "EMPTY_DOCUMENT"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeBusiness
	ErrorTypeValidation
	ErrorTypeExternal
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Type     ErrorType   `json:"type"`
	HTTPCode int         `json:"-"`
	Details  interface{} `json:"details,omitempty"`
	Cause    error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewSystemError 创建系统错误
func NewSystemError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewInvalidFileError 创建文件格式错误（非PDF上传在任务创建前被拒绝）
func NewInvalidFileError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidFileFormat,
		Message:  reason,
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewNotFoundError 创建资源未找到错误
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusNotFound,
	}
}

// NewExternalError 创建外部服务错误
// 瞬时协作方故障统一映射为503，请求路径内不做自动重试
func NewExternalError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeExternalService,
		Message:  message,
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusServiceUnavailable,
	}
}

// NewJobError 创建摄取任务错误
func NewJobError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeJobFailed,
		Message:  message,
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewMissingConfigError 创建配置缺失错误（进程启动时致命）
func NewMissingConfigError(key string) *AppError {
	return &AppError{
		Code:     ErrCodeMissingConfig,
		Message:  fmt.Sprintf("required configuration %s is not set", key),
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
	}
}

// IsAppError 检查是否为AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取AppError，如果不是则包装为系统错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewSystemError(ErrCodeInternalServer, "Internal server error").WithCause(err)
}
