package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storefront/internal/config"
	"github.com/storefront/internal/prismic"
)

var (
	typePattern = regexp.MustCompile(`at\(document\.type, "([^"]+)"\)`)
	uidPattern  = regexp.MustCompile(`at\(my\.[a-z_]+\.uid, "([^"]+)"\)`)
)

type fakeRepository struct {
	mu       sync.Mutex
	searches []map[string]string
}

func (f *fakeRepository) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"refs": []map[string]any{
				{"id": "release", "ref": "release-ref", "label": "Release"},
				{"id": "master", "ref": "master-ref", "label": "Master", "isMasterRef": true},
			},
		})
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		f.mu.Lock()
		search := map[string]string{
			"ref":        query.Get("ref"),
			"q":          query.Get("q"),
			"fetchLinks": query.Get("fetchLinks"),
		}
		if query.Has("lang") {
			search["lang"] = query.Get("lang")
		}
		f.searches = append(f.searches, search)
		f.mu.Unlock()

		q := query.Get("q")
		docType := ""
		if m := typePattern.FindStringSubmatch(q); m != nil {
			docType = m[1]
		}
		var results []map[string]any
		switch docType {
		case "meta", "navigation", "preloader", "home", "about":
			results = append(results, map[string]any{
				"id":   docType,
				"type": docType,
				"data": map[string]any{"title": strings.ToUpper(docType)},
			})
		case "collection":
			results = append(results,
				remoteCollection("c-2022", "2022-03-14T10:20:30+0000", "Spring"),
				remoteCollection("c-2021", "2021-11-02T08:00:00+0000", "Archive"),
			)
		case "product":
			if m := uidPattern.FindStringSubmatch(q); m != nil && m[1] == "silver-ring" {
				results = append(results, map[string]any{
					"id":   "p1",
					"uid":  "silver-ring",
					"type": "product",
					"data": map[string]any{"title": "Silver Ring"},
				})
			}
		}
		writeJSON(t, w, map[string]any{
			"page":               1,
			"results_per_page":   len(results),
			"results_size":       len(results),
			"total_results_size": len(results),
			"total_pages":        1,
			"results":            results,
		})
	})
	return mux
}

func remoteCollection(id, published, title string) map[string]any {
	return map[string]any{
		"id":                     id,
		"type":                   "collection",
		"first_publication_date": published,
		"data": map[string]any{
			"title": title,
			"products": []any{
				map[string]any{"products_product": map[string]any{
					"link_type": "Document", "id": "p1", "type": "product", "uid": "silver-ring",
				}},
			},
		},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func (f *fakeRepository) searchFor(docType string) (map[string]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, search := range f.searches {
		if strings.Contains(search["q"], `at(document.type, "`+docType+`")`) {
			return search, true
		}
	}
	return nil, false
}

func setupRemoteRouter(t *testing.T) (*fakeRepository, http.Handler) {
	t.Helper()
	return setupRemoteRouterWithConfig(t, testConfig())
}

func setupRemoteRouterWithConfig(t *testing.T, cfg config.AppConfig) (*fakeRepository, http.Handler) {
	t.Helper()
	repo := &fakeRepository{}
	server := httptest.NewServer(repo.handler(t))
	t.Cleanup(server.Close)

	api, err := prismic.NewAPI(server.URL+"/api/v2", "", 2*time.Second)
	if err != nil {
		t.Fatalf("NewAPI returned error: %v", err)
	}
	return repo, setupRouterWithConfig(t, cfg, api)
}

func TestRemoteHomeQuery(t *testing.T) {
	repo, r := setupRemoteRouter(t)

	rr := perform(r, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Spring") || strings.Contains(body, "Archive") {
		t.Fatalf("expected only the 2022 collection, got %s", body)
	}
	if !strings.Contains(body, `href="/detail/silver-ring"`) {
		t.Fatalf("expected product link, got %s", body)
	}

	search, ok := repo.searchFor("collection")
	if !ok {
		t.Fatal("expected a collection search")
	}
	wantQ := `[[date.year(document.first_publication_date, 2022)][at(document.type, "collection")]]`
	if search["q"] != wantQ {
		t.Fatalf("expected q %s, got %s", wantQ, search["q"])
	}
	if search["fetchLinks"] != "product.image" {
		t.Fatalf("expected fetchLinks product.image, got %q", search["fetchLinks"])
	}
	if search["ref"] != "master-ref" {
		t.Fatalf("expected master ref, got %q", search["ref"])
	}
	if search["lang"] != "en-us" {
		t.Fatalf("expected lang en-us, got %q", search["lang"])
	}
	for _, single := range []string{"meta", "navigation", "preloader", "home"} {
		if _, ok := repo.searchFor(single); !ok {
			t.Fatalf("expected %s to be fetched", single)
		}
	}
}

func TestRemoteDefaultLocalesSendNoLang(t *testing.T) {
	t.Setenv("CONTENT_LOCALES", "")
	cfg := testConfig()
	cfg.ContentLocales = config.LoadFile("").ContentLocales

	repo, r := setupRemoteRouterWithConfig(t, cfg)

	rr := perform(r, http.MethodGet, "/about", map[string]string{"Accept-Language": "fr-FR,fr;q=0.9"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	for _, single := range []string{"meta", "navigation", "preloader", "about"} {
		search, ok := repo.searchFor(single)
		if !ok {
			t.Fatalf("expected %s to be fetched", single)
		}
		if _, sent := search["lang"]; sent {
			t.Fatalf("expected no lang for %s, got %q", single, search["lang"])
		}
	}
}

func TestRemoteWildcardLocaleSendsStar(t *testing.T) {
	cfg := testConfig()
	cfg.ContentLocales = []string{"*"}

	repo, r := setupRemoteRouterWithConfig(t, cfg)

	rr := perform(r, http.MethodGet, "/about", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	search, ok := repo.searchFor("meta")
	if !ok {
		t.Fatal("expected a meta search")
	}
	if search["lang"] != "*" {
		t.Fatalf("expected lang *, got %q", search["lang"])
	}
}

func TestRemoteDetailQuery(t *testing.T) {
	repo, r := setupRemoteRouter(t)

	rr := perform(r, http.MethodGet, "/detail/silver-ring", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	search, ok := repo.searchFor("product")
	if !ok {
		t.Fatal("expected a product search")
	}
	if search["fetchLinks"] != "collection.title" {
		t.Fatalf("expected fetchLinks collection.title, got %q", search["fetchLinks"])
	}
	if !strings.Contains(search["q"], `at(my.product.uid, "silver-ring")`) {
		t.Fatalf("expected uid predicate, got %s", search["q"])
	}

	rr = perform(r, http.MethodGet, "/detail/gold-chain", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRemotePreviewCookiePinsRef(t *testing.T) {
	repo, r := setupRemoteRouter(t)

	rr := perform(r, http.MethodGet, "/about", nil, &http.Cookie{Name: prismic.PreviewCookie, Value: "preview-ref"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	search, ok := repo.searchFor("about")
	if !ok {
		t.Fatal("expected an about search")
	}
	if search["ref"] != "preview-ref" {
		t.Fatalf("expected preview ref, got %q", search["ref"])
	}
}
