package prismic

import (
	"context"
	"strings"
	"sync"
)

// PreviewCookie is the cookie the CMS toolbar sets while a preview is active.
const PreviewCookie = "io.prismic.preview"

// Client is a request-scoped handle over a Source. It pins one ref for all of
// its queries so every document on a page comes from the same release.
type Client struct {
	source   Source
	lang     string
	pageSize int

	mu  sync.Mutex
	ref string
}

// Option configures a Client.
type Option func(*Client)

// WithRef pins the handle to a specific ref, typically a preview ref.
func WithRef(ref string) Option {
	return func(c *Client) {
		c.ref = strings.TrimSpace(ref)
	}
}

// WithLang restricts queries to one content language.
func WithLang(lang string) Option {
	return func(c *Client) {
		c.lang = strings.TrimSpace(lang)
	}
}

// WithPageSize sets the page size used by Get when the query leaves it empty.
func WithPageSize(size int) Option {
	return func(c *Client) {
		c.pageSize = size
	}
}

// NewClient returns a handle bound to source.
func NewClient(source Source, opts ...Option) *Client {
	c := &Client{source: source}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lang reports the language the handle queries with.
func (c *Client) Lang() string { return c.lang }

// Ref resolves the pinned ref, fetching the master ref on first use.
func (c *Client) Ref(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ref != "" {
		return c.ref, nil
	}
	ref, err := c.source.MasterRef(ctx)
	if err != nil {
		return "", err
	}
	c.ref = ref
	return ref, nil
}

// Get runs an arbitrary search.
func (c *Client) Get(ctx context.Context, q Query) (Response, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return Response{}, err
	}
	q.Ref = ref
	if q.Lang == "" {
		q.Lang = c.lang
	}
	if q.PageSize == 0 {
		q.PageSize = c.pageSize
	}
	return c.source.Query(ctx, q)
}

// GetSingle fetches the only document of a singleton type.
func (c *Client) GetSingle(ctx context.Context, docType string, fetchLinks ...string) (*Document, error) {
	return c.first(ctx, Query{
		Predicates: []Predicate{At(PathDocumentType, docType)},
		FetchLinks: fetchLinks,
	}, "singleton %q not found", docType)
}

// GetByUID fetches a document of docType by its unique identifier.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, fetchLinks ...string) (*Document, error) {
	return c.first(ctx, Query{
		Predicates: []Predicate{
			At(PathDocumentType, docType),
			At(UIDPath(docType), uid),
		},
		FetchLinks: fetchLinks,
	}, "%s %q not found", docType, uid)
}

// GetByID fetches any document by its CMS id.
func (c *Client) GetByID(ctx context.Context, id string, fetchLinks ...string) (*Document, error) {
	return c.first(ctx, Query{
		Predicates: []Predicate{At(PathDocumentID, id)},
		FetchLinks: fetchLinks,
	}, "document %q not found", id)
}

func (c *Client) first(ctx context.Context, q Query, format string, args ...any) (*Document, error) {
	q.PageSize = 1
	resp, err := c.Get(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, notFoundf(format, args...)
	}
	doc := resp.Results[0]
	return &doc, nil
}
