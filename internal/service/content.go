package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/storefront/internal/prismic"
)

// ErrNoSource 表示未配置内容后端。
var ErrNoSource = errors.New("content source is required")

// Reader is the read contract page loaders depend on. *prismic.Client
// satisfies it.
type Reader interface {
	Get(ctx context.Context, q prismic.Query) (prismic.Response, error)
	GetSingle(ctx context.Context, docType string, fetchLinks ...string) (*prismic.Document, error)
	GetByUID(ctx context.Context, docType, uid string, fetchLinks ...string) (*prismic.Document, error)
	GetByID(ctx context.Context, id string, fetchLinks ...string) (*prismic.Document, error)
}

// RequestOptions carries the request-scoped values a handle is bound to.
type RequestOptions struct {
	// Ref overrides the preview cookie, e.g. a ref stored in the session.
	Ref  string
	Lang string
}

// ContentFactory 在启动时构建一次，之后只读；每个请求通过 ForRequest 获得独立句柄。
type ContentFactory struct {
	source   prismic.Source
	pageSize int
}

// NewContentFactory wraps an immutable content backend.
func NewContentFactory(source prismic.Source, pageSize int) (*ContentFactory, error) {
	if source == nil {
		return nil, ErrNoSource
	}
	return &ContentFactory{source: source, pageSize: pageSize}, nil
}

// Source exposes the backend, mainly for the seed command.
func (f *ContentFactory) Source() prismic.Source {
	return f.source
}

// ForRequest returns a fresh handle for one request. The handle pins the
// preview ref when one is present; otherwise it resolves the master ref on
// first use.
func (f *ContentFactory) ForRequest(r *http.Request, opts RequestOptions) *prismic.Client {
	ref := strings.TrimSpace(opts.Ref)
	if ref == "" && r != nil {
		if cookie, err := r.Cookie(prismic.PreviewCookie); err == nil {
			ref = PreviewRefFromCookie(cookie.Value)
		}
	}

	clientOpts := []prismic.Option{prismic.WithPageSize(f.pageSize)}
	if ref != "" {
		clientOpts = append(clientOpts, prismic.WithRef(ref))
	}
	if lang := strings.TrimSpace(opts.Lang); lang != "" {
		clientOpts = append(clientOpts, prismic.WithLang(lang))
	}
	return prismic.NewClient(f.source, clientOpts...)
}

// PreviewRefFromCookie decodes the toolbar cookie. Older toolbars store the
// ref itself; newer ones store {"<repo host>":{"preview":"<ref>"}}.
func PreviewRefFromCookie(raw string) string {
	value := strings.TrimSpace(raw)
	if decoded, err := url.QueryUnescape(value); err == nil {
		value = strings.TrimSpace(decoded)
	}
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "{") {
		return value
	}

	var byRepo map[string]struct {
		Preview string `json:"preview"`
	}
	if err := json.Unmarshal([]byte(value), &byRepo); err != nil {
		return ""
	}
	for _, entry := range byRepo {
		if ref := strings.TrimSpace(entry.Preview); ref != "" {
			return ref
		}
	}
	return ""
}
