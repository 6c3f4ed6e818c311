// Package errors 定义 HTTP 接口的业务错误码
package errors

import "net/http"

// 业务错误码
const (
	CodeOK            = 0
	CodeInvalidParams = 40001
	CodeUnauthorized  = 40002
	CodeForbidden     = 40003
	CodeNotFound      = 40004
	CodeConflict      = 40009
	CodeRateLimited   = 40029
	CodeInternalError = 50000
)

// CodeToStatus 业务错误码映射到 HTTP 状态码
func CodeToStatus(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParams:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
