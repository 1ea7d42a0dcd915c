package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/service"
	"go.uber.org/zap"
)

// ShowHome 渲染首页：共享内容、home 单例与当年的集合列表。
func (a *API) ShowHome(c *gin.Context) {
	page, err := a.pages.Home(c.Request.Context(), a.client(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.renderHTML(c, http.StatusOK, "pages/home", withDefaults(page.Defaults, gin.H{
		"home":        page.Home,
		"collections": page.Collections,
	}))
}

// ShowAbout renders the about page.
func (a *API) ShowAbout(c *gin.Context) {
	page, err := a.pages.About(c.Request.Context(), a.client(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.renderHTML(c, http.StatusOK, "pages/about", withDefaults(page.Defaults, gin.H{
		"about": page.About,
	}))
}

// ShowCollections renders the collection listing.
func (a *API) ShowCollections(c *gin.Context) {
	page, err := a.pages.Collections(c.Request.Context(), a.client(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.renderHTML(c, http.StatusOK, "pages/collections", withDefaults(page.Defaults, gin.H{
		"home":        page.Home,
		"collections": page.Collections,
	}))
}

// ShowDetail renders one product. An unknown uid surfaces as 404 through ErrorHandler.
func (a *API) ShowDetail(c *gin.Context) {
	page, err := a.pages.Detail(c.Request.Context(), a.client(c), c.Param("uid"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.renderHTML(c, http.StatusOK, "pages/detail", withDefaults(page.Defaults, gin.H{
		"product": page.Product,
	}))
}

// ShowNotFound is the fallback for unmatched routes. Shared content is
// best effort here; the page renders without it when the fetch fails.
func (a *API) ShowNotFound(c *gin.Context) {
	defaults, err := service.LoadDefaults(c.Request.Context(), a.client(c))
	if err != nil {
		a.logger.Debug("not found page rendered without shared content", zap.Error(err))
		defaults = service.Defaults{}
	}
	a.renderHTML(c, http.StatusNotFound, "pages/notfound", withDefaults(defaults, nil))
}
