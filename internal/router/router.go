package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/config"
	"github.com/storefront/internal/handler"
	"github.com/storefront/internal/service"
	"github.com/storefront/web"
	"go.uber.org/zap"
)

const sessionName = "storefront_session"

// SetupRouter 配置 Gin 引擎、中间件和路由
func SetupRouter(cfg config.AppConfig, content *service.ContentFactory, logger *zap.Logger) (*gin.Engine, error) {
	if content == nil {
		return nil, service.ErrNoSource
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("%w: session secret is empty", config.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("open static assets: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(templates)
	r.Use(handler.PanicBoundary(templates, logger))

	// 安全响应头
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	if cfg.SSLRedirect {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	r.Use(secure.New(secureConfig))

	// 静态文件在会话与日志之前处理，未命中直接返回纯文本 404
	serveStatic := handler.Static(static)
	r.GET("/static/*filepath", serveStatic)
	r.HEAD("/static/*filepath", serveStatic)

	// 配置会话中间件，保存预览 ref
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.SSLRedirect,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	api := handler.NewAPI(content, service.NewPageService(cfg.CollectionYear), cfg.ContentLocales, logger)

	r.Use(
		handler.RequestLogger(logger),
		handler.ViewContext(),
		api.LocaleMiddleware(),
		handler.ErrorHandler(templates, logger),
		handler.Recovery(),
	)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// 页面同时响应 HEAD，供探活和链接检查使用
	pageMethods := []string{http.MethodGet, http.MethodHead}
	r.Match(pageMethods, "/", api.ShowHome)
	r.Match(pageMethods, "/about", api.ShowAbout)
	r.Match(pageMethods, "/collections", api.ShowCollections)
	r.Match(pageMethods, "/detail/:uid", api.ShowDetail)

	preview := r.Group("/preview")
	{
		preview.GET("", api.Preview)
		preview.GET("/exit", api.ExitPreview)
	}

	r.NoRoute(api.ShowNotFound)

	return r, nil
}
