package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLanguageOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := NewAPI(nil, nil, []string{"en-us", "fr-fr"}, nil)

	tests := []struct {
		name        string
		query       string
		cookie      string
		accept      string
		want        string
		wantPersist bool
	}{
		{name: "query wins", query: "?lang=fr-ca", cookie: "en-us", accept: "en", want: "fr-fr", wantPersist: true},
		{name: "cookie before header", cookie: "fr-fr", accept: "en-US", want: "fr-fr"},
		{name: "accept language", accept: "de-DE,fr;q=0.8,en;q=0.5", want: "fr-fr"},
		{name: "unsupported query ignored", query: "?lang=de", accept: "fr", want: "fr-fr"},
		{name: "default", want: "en-us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: languageCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			c.Request = req

			got, persist := api.resolveLanguage(c)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if persist != tt.wantPersist {
				t.Fatalf("expected persist=%v, got %v", tt.wantPersist, persist)
			}
		})
	}
}

func TestLocaleMiddlewareSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := NewAPI(nil, nil, []string{"fr-fr"}, nil)

	r := gin.New()
	r.Use(ViewContext(), api.LocaleMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, requestView(c).HTMLLang)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Language") != "fr-FR" {
		t.Fatalf("expected Content-Language fr-FR, got %q", rr.Header().Get("Content-Language"))
	}
	if rr.Header().Get("Vary") != "User-Agent, Accept-Language" {
		t.Fatalf("unexpected Vary %q", rr.Header().Get("Vary"))
	}
	if rr.Body.String() != "fr-FR" {
		t.Fatalf("expected view context html lang, got %q", rr.Body.String())
	}
}

func TestLocaleMiddlewareWithoutLocales(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := NewAPI(nil, nil, nil, nil)

	r := gin.New()
	r.Use(ViewContext(), api.LocaleMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "%q", api.requestLocale(c).Language)
	})

	req := httptest.NewRequest(http.MethodGet, "/?lang=fr-fr", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Body.String() != `""` {
		t.Fatalf("expected no content language, got %s", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Language"); got != "" {
		t.Fatalf("expected no Content-Language, got %q", got)
	}
	if got := rr.Header().Get("Vary"); got != "User-Agent" {
		t.Fatalf("unexpected Vary %q", got)
	}
	if got := rr.Header().Get("Set-Cookie"); got != "" {
		t.Fatalf("expected no language cookie, got %q", got)
	}
}

func TestAppendVaryHeaderDeduplicates(t *testing.T) {
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Header("Vary", "Accept-Encoding, User-Agent")

	appendVaryHeader(c, "User-Agent", "Cookie", " ")

	if got := rr.Header().Get("Vary"); got != "Accept-Encoding, User-Agent, Cookie" {
		t.Fatalf("unexpected Vary %q", got)
	}
}
