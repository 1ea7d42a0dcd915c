package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/prismic"
	"github.com/storefront/internal/service"
	"github.com/storefront/internal/view"
	"go.uber.org/zap"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	content *service.ContentFactory
	pages   *service.PageService
	locales []string
	logger  *zap.Logger
}

// NewAPI constructs a handler set over an immutable content factory.
func NewAPI(content *service.ContentFactory, pages *service.PageService, locales []string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pages == nil {
		pages = service.NewPageService(service.DefaultCollectionYear)
	}
	return &API{
		content: content,
		pages:   pages,
		locales: locales,
		logger:  logger,
	}
}

// client returns the content handle for this request, bound to the session
// preview ref and the negotiated content language.
func (a *API) client(c *gin.Context) *prismic.Client {
	return a.content.ForRequest(c.Request, service.RequestOptions{
		Ref:  previewRef(c),
		Lang: a.requestLocale(c).Language,
	})
}

func withDefaults(defaults service.Defaults, data gin.H) gin.H {
	payload := gin.H{
		"meta":       defaults.Meta,
		"navigation": defaults.Navigation,
		"preloader":  defaults.Preloader,
	}
	for key, value := range data {
		payload[key] = value
	}
	return payload
}

// pagePayload 合并页面数据与请求级视图上下文（设备标记、语言、请求 ID）。
func pagePayload(c *gin.Context, data gin.H) gin.H {
	vc := requestView(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["view"]; !exists {
		payload["view"] = vc
	}
	if _, exists := payload["isDesktop"]; !exists {
		payload["isDesktop"] = vc.IsDesktop
	}
	if _, exists := payload["isPhone"]; !exists {
		payload["isPhone"] = vc.IsPhone
	}
	if _, exists := payload["isTablet"]; !exists {
		payload["isTablet"] = vc.IsTablet
	}
	if _, exists := payload["lang"]; !exists {
		payload["lang"] = vc.HTMLLang
	}
	return payload
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	c.HTML(status, template, pagePayload(c, data))
}

func requestView(c *gin.Context) view.Context {
	if cached, exists := c.Get(viewContextKey); exists {
		if vc, ok := cached.(view.Context); ok {
			return vc
		}
	}
	vc := view.NewContext(c.GetHeader("User-Agent"))
	if c.Request != nil && c.Request.URL != nil {
		vc.Path = c.Request.URL.Path
	}
	if vc.HTMLLang == "" {
		vc.HTMLLang = "en"
	}
	return vc
}
