package prismic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
	userAgent        = "storefront/1.0"
)

var repositoryNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Source is a backend able to answer document searches. The remote API and
// the local sqlite store both implement it.
type Source interface {
	MasterRef(ctx context.Context) (string, error)
	Query(ctx context.Context, q Query) (Response, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// API talks to the content REST API (v2).
type API struct {
	endpoint    string
	accessToken string
	http        httpDoer
}

// NormalizeEndpoint accepts either a repository name or a full API URL and
// returns the v2 API root.
func NormalizeEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: endpoint is empty", ErrInvalidEndpoint)
	}

	if !strings.Contains(trimmed, "://") {
		name := strings.ToLower(trimmed)
		if !repositoryNamePattern.MatchString(name) {
			return "", fmt.Errorf("%w: %q is neither a URL nor a repository name", ErrInvalidEndpoint, raw)
		}
		return "https://" + name + ".cdn.prismic.io/api/v2", nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}

	path := strings.TrimRight(parsed.Path, "/")
	if path == "" || path == "/api" {
		path = "/api/v2"
	}
	parsed.Path = path
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// NewAPI builds a remote content source.
func NewAPI(endpoint, accessToken string, timeout time.Duration) (*API, error) {
	normalized, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &API{
		endpoint:    normalized,
		accessToken: strings.TrimSpace(accessToken),
		http:        &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient swaps the transport, mainly for tests.
func (a *API) SetHTTPClient(client httpDoer) {
	if client == nil {
		a.http = &http.Client{Timeout: defaultTimeout}
		return
	}
	a.http = client
}

// Endpoint returns the normalized API root.
func (a *API) Endpoint() string {
	return a.endpoint
}

// MasterRef reads the repository descriptor and returns the published ref.
func (a *API) MasterRef(ctx context.Context) (string, error) {
	values := url.Values{}
	var repo repository
	if err := a.getJSON(ctx, a.endpoint, values, &repo); err != nil {
		return "", err
	}
	ref, ok := repo.master()
	if !ok {
		return "", unavailable(fmt.Errorf("repository %s has no master ref", a.endpoint))
	}
	return ref, nil
}

// Query runs a document search. Ref must already be resolved.
func (a *API) Query(ctx context.Context, q Query) (Response, error) {
	q = q.Normalized()
	if strings.TrimSpace(q.Ref) == "" {
		ref, err := a.MasterRef(ctx)
		if err != nil {
			return Response{}, err
		}
		q.Ref = ref
	}

	values := url.Values{}
	values.Set("ref", q.Ref)
	if encoded := q.Q(); encoded != "" {
		values.Set("q", encoded)
	}
	if len(q.FetchLinks) > 0 {
		values.Set("fetchLinks", strings.Join(q.FetchLinks, ","))
	}
	if q.Lang != "" {
		values.Set("lang", q.Lang)
	}
	values.Set("pageSize", strconv.Itoa(q.PageSize))
	values.Set("page", strconv.Itoa(q.Page))

	var resp Response
	if err := a.getJSON(ctx, a.endpoint+"/documents/search", values, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (a *API) getJSON(ctx context.Context, endpoint string, values url.Values, dst any) error {
	if a.accessToken != "" {
		values.Set("access_token", a.accessToken)
	}
	target := endpoint
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return unavailable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	client := a.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return unavailable(fmt.Errorf("request %s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return unavailable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		status := statusForUpstream(resp.StatusCode)
		message := "content service is unavailable"
		sentinel := ErrUnavailable
		if status == http.StatusNotFound {
			message = "content not found"
			sentinel = ErrNotFound
		}
		return &Error{
			Status:  status,
			Message: message,
			Err:     fmt.Errorf("%w: %s returned %s: %s", sentinel, endpoint, resp.Status, snippet(body)),
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return unavailable(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func snippet(body []byte) string {
	const limit = 256
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > limit {
		return trimmed[:limit] + "…"
	}
	return trimmed
}
