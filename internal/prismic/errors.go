package prismic

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound 表示查询的文档不存在。
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable 表示内容 API 无法访问或返回了异常响应。
	ErrUnavailable = errors.New("content api unavailable")
	// ErrInvalidEndpoint 表示配置的 API 地址无效。
	ErrInvalidEndpoint = errors.New("invalid content api endpoint")
)

// Error carries the HTTP status a failed content fetch should surface as.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode reports the response status for the failure.
func (e *Error) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func notFoundf(format string, args ...any) error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...), Err: ErrNotFound}
}

func unavailable(cause error) error {
	return &Error{
		Status:  http.StatusBadGateway,
		Message: "content service is unavailable",
		Err:     errors.Join(ErrUnavailable, cause),
	}
}

// statusForUpstream maps an API status code to the status shown to visitors.
func statusForUpstream(code int) int {
	if code == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
