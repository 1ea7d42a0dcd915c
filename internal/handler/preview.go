package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/locale"
	"github.com/storefront/internal/prismic"
	"github.com/storefront/internal/service"
	"github.com/storefront/internal/view"
)

const previewSessionKey = "preview_ref"

// ErrPreviewToken 表示预览入口缺少 token。
var ErrPreviewToken = errors.New("preview token is required")

// Preview stores the preview ref in the session and redirects to the
// previewed document.
func (a *API) Preview(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		_ = c.Error(badRequest(ErrPreviewToken.Error(), ErrPreviewToken))
		return
	}

	target := "/"
	if documentID := strings.TrimSpace(c.Query("documentId")); documentID != "" {
		client := a.content.ForRequest(c.Request, service.RequestOptions{Ref: token, Lang: locale.Any})
		doc, err := client.GetByID(c.Request.Context(), documentID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		target = view.Link(doc)
	}

	session := sessions.Default(c)
	session.Set(previewSessionKey, token)
	if err := session.Save(); err != nil {
		_ = c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// ExitPreview drops the preview ref and returns to the published site.
func (a *API) ExitPreview(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(previewSessionKey)
	if err := session.Save(); err != nil {
		_ = c.Error(err)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:   prismic.PreviewCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	c.Redirect(http.StatusFound, "/")
}

// previewRef reads the session preview ref. Requests served without the
// session middleware have none.
func previewRef(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	ref, _ := sessions.Default(c).Get(previewSessionKey).(string)
	return strings.TrimSpace(ref)
}
