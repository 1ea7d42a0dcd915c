package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// Static serves the embedded asset tree for a "/static/*filepath" route.
// Misses get a plain 404 without reaching the page fallback.
func Static(assets fs.FS) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(assets))
	return func(c *gin.Context) {
		name := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
		if name == "" {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}
		info, err := fs.Stat(assets, name)
		if err != nil || info.IsDir() {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}

		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = "/" + name
		req.URL.RawPath = ""
		fileServer.ServeHTTP(c.Writer, req)
	}
}
