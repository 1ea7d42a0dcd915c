package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/storefront/internal/logging"
	"github.com/storefront/internal/prismic"
	"github.com/storefront/internal/view"
	"go.uber.org/zap"
)

const (
	viewContextKey   = "__view_context"
	requestIDKey     = "__request_id"
	requestIDHeader  = "X-Request-ID"
	maxRequestIDSize = 64

	// DefaultErrorMessage is shown when a failure carries no message of its own.
	DefaultErrorMessage = "Code 500: Something Went Wrong"
	errorTemplate       = "pages/error"
)

// StatusCoder is implemented by errors that know which status they map to.
type StatusCoder interface {
	StatusCode() int
}

type statusError struct {
	status  int
	message string
	err     error
}

func (e *statusError) Error() string {
	if e.message != "" {
		return e.message
	}
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *statusError) Unwrap() error { return e.err }

func (e *statusError) StatusCode() int { return e.status }

func badRequest(message string, err error) error {
	return &statusError{status: http.StatusBadRequest, message: message, err: err}
}

// ViewContext classifies the device once per request and stores the view
// context for handlers and templates.
func ViewContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		vc := view.NewContext(c.GetHeader("User-Agent"))
		vc.Path = c.Request.URL.Path
		vc.RequestID = c.GetString(requestIDKey)
		vc.Preview = previewRef(c) != ""
		if cookie, err := c.Cookie(prismic.PreviewCookie); err == nil && cookie != "" {
			vc.Preview = true
		}
		vc.HTMLLang = "en"
		c.Set(viewContextKey, vc)
		appendVaryHeader(c, "User-Agent")
		c.Next()
	}
}

// RequestLogger assigns a request id and writes one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDSize {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("device", string(requestView(c).Device)),
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("request completed", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	}
}

// Recovery converts panics into an error for ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		_ = c.Error(&statusError{
			status: http.StatusInternalServerError,
			err:    fmt.Errorf("panic: %v", recovered),
		})
		c.Abort()
	})
}

// PanicBoundary 位于整条中间件链最外层，兜住 ErrorHandler 之前的中间件（日志、视图上下文、语言）里的 panic。
func PanicBoundary(tmpl *template.Template, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("request panicked outside the error boundary",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		if !c.Writer.Written() {
			renderErrorOrPlain(c, tmpl, http.StatusInternalServerError, DefaultErrorMessage)
		}
		c.Abort()
	})
}

// renderErrorOrPlain is renderError for a request whose view context may be
// the thing that panicked.
func renderErrorOrPlain(c *gin.Context, tmpl *template.Template, status int, message string) {
	defer func() {
		if recover() != nil && !c.Writer.Written() {
			c.Data(status, "text/plain; charset=utf-8", []byte(message))
		}
	}()
	renderError(c, tmpl, status, message)
}

// ErrorHandler 是唯一的终端错误边界：处理器调用 c.Error 后返回，这里统一决定状态码与消息，
// 并通过 pages/error 模板渲染；模板失败或客户端只接受纯文本时直接输出消息。
func ErrorHandler(tmpl *template.Template, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, message := errorResponse(err)

		reqLogger := logger
		if ctxLogger, ok := logging.Lookup(c.Request.Context()); ok {
			reqLogger = ctxLogger
		}
		fields := []zap.Field{zap.Int("status", status), zap.Error(err)}
		if status >= http.StatusInternalServerError {
			reqLogger.Error("request failed", fields...)
		} else {
			reqLogger.Warn("request failed", fields...)
		}

		if c.Writer.Written() {
			return
		}
		renderError(c, tmpl, status, message)
	}
}

// errorResponse maps an error to the status and message shown to visitors.
func errorResponse(err error) (int, string) {
	status := http.StatusInternalServerError
	message := ""

	var (
		serr  *statusError
		perr  *prismic.Error
		coder StatusCoder
	)
	switch {
	case errors.As(err, &serr):
		status, message = serr.status, serr.message
	case errors.As(err, &perr):
		status, message = perr.StatusCode(), perr.Message
	case errors.As(err, &coder):
		status = coder.StatusCode()
		if described, ok := coder.(error); ok {
			message = described.Error()
		}
	case errors.Is(err, prismic.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case err != nil:
		message = err.Error()
	}

	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = DefaultErrorMessage
	}
	return status, message
}

func renderError(c *gin.Context, tmpl *template.Template, status int, message string) {
	if tmpl != nil && c.NegotiateFormat(binding.MIMEHTML, binding.MIMEPlain) == binding.MIMEHTML {
		var buf bytes.Buffer
		payload := pagePayload(c, gin.H{"status": status, "message": message})
		if err := tmpl.ExecuteTemplate(&buf, errorTemplate, payload); err == nil {
			c.Data(status, "text/html; charset=utf-8", buf.Bytes())
			return
		}
	}
	c.Data(status, "text/plain; charset=utf-8", []byte(message))
}
