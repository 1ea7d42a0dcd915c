package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/storefront/internal/prismic"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const seedYAML = `
documents:
  - id: product-ring
    uid: silver-ring
    type: product
    lang: en-us
    first_publication_date: "2022-02-01T10:00:00+0000"
    data:
      title: Silver ring
      image:
        url: https://images.example.com/ring.jpg
        alt: Ring
      collection:
        link_type: Document
        id: collection-spring
        type: collection
  - id: collection-spring
    type: collection
    lang: en-us
    first_publication_date: "2022-03-14T10:20:30+0000"
    data:
      title: Spring
      products:
        - products_product:
            link_type: Document
            id: product-ring
            type: product
  - id: collection-old
    type: collection
    lang: en-us
    first_publication_date: "2021-11-02T08:00:00+0000"
    data:
      title: Old
  - id: home
    type: home
    data:
      title: Welcome
`

func setupStoreTestDB(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&Document{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	t.Cleanup(func() {
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	docs, err := LoadSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("failed to parse seed: %v", err)
	}
	store := NewStore(gdb)
	if err := store.Put(context.Background(), docs...); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

func TestStoreFiltersByTypeAndYear(t *testing.T) {
	store := setupStoreTestDB(t)

	resp, err := store.Query(context.Background(), prismic.Query{
		Predicates: []prismic.Predicate{
			prismic.DateYear(prismic.PathFirstPublication, 2022),
			prismic.At(prismic.PathDocumentType, "collection"),
		},
	})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	ids := make([]string, 0, len(resp.Results))
	for _, doc := range resp.Results {
		ids = append(ids, doc.ID)
	}
	if diff := cmp.Diff([]string{"collection-spring"}, ids); diff != "" {
		t.Fatalf("unexpected results (-want +got):\n%s", diff)
	}
	if resp.TotalResultsSize != 1 || resp.TotalPages != 1 {
		t.Fatalf("unexpected paging info: %+v", resp)
	}
}

func TestOpenLimitsMemoryDatabasesToOneConnection(t *testing.T) {
	tests := []struct {
		dsn  string
		want int
	}{
		{dsn: ":memory:", want: 1},
		{dsn: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), want: 1},
		{dsn: filepath.Join(t.TempDir(), "storefront.db"), want: 0},
	}

	for _, tt := range tests {
		gdb, err := Open(tt.dsn)
		if err != nil {
			t.Fatalf("Open(%q) returned error: %v", tt.dsn, err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			t.Fatalf("failed to access sql db: %v", err)
		}
		if got := sqlDB.Stats().MaxOpenConnections; got != tt.want {
			t.Fatalf("Open(%q): expected max open connections %d, got %d", tt.dsn, tt.want, got)
		}
		sqlDB.Close()
	}
}

func TestStoreResolvesRequestedLinkFieldsOnly(t *testing.T) {
	store := setupStoreTestDB(t)

	resp, err := store.Query(context.Background(), prismic.Query{
		Predicates: []prismic.Predicate{prismic.At(prismic.PathDocumentID, "collection-spring")},
		FetchLinks: []string{"product.image"},
	})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected one document, got %d", len(resp.Results))
	}

	products, _ := resp.Results[0].Data["products"].([]any)
	if len(products) != 1 {
		t.Fatalf("expected one product slice item, got %v", resp.Results[0].Data["products"])
	}
	item, _ := products[0].(map[string]any)
	link, _ := item["products_product"].(map[string]any)
	data, _ := link["data"].(map[string]any)

	if _, ok := data["image"]; !ok {
		t.Fatalf("expected linked image to be resolved, got %v", link)
	}
	if _, ok := data["title"]; ok {
		t.Fatalf("title was not requested and should not be copied: %v", data)
	}
	if link["uid"] != "silver-ring" {
		t.Fatalf("expected uid to be filled from the linked document, got %v", link["uid"])
	}
}

func TestStoreLooksUpByUID(t *testing.T) {
	store := setupStoreTestDB(t)
	client := prismic.NewClient(store, prismic.WithLang("en-us"))

	product, err := client.GetByUID(context.Background(), "product", "silver-ring", "collection.title")
	if err != nil {
		t.Fatalf("GetByUID returned error: %v", err)
	}
	link, _ := product.Data["collection"].(map[string]any)
	data, _ := link["data"].(map[string]any)
	if data["title"] != "Spring" {
		t.Fatalf("expected linked collection title, got %v", link)
	}

	_, err = client.GetByUID(context.Background(), "product", "does-not-exist")
	if !errors.Is(err, prismic.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreSingletonIgnoresLanguageWhenUnset(t *testing.T) {
	store := setupStoreTestDB(t)
	client := prismic.NewClient(store, prismic.WithLang("fr-fr"))

	home, err := client.GetSingle(context.Background(), "home")
	if err != nil {
		t.Fatalf("GetSingle returned error: %v", err)
	}
	if home.Data["title"] != "Welcome" {
		t.Fatalf("unexpected home document: %+v", home)
	}
}

func TestStoreRejectsUnknownPredicate(t *testing.T) {
	store := setupStoreTestDB(t)

	_, err := store.Query(context.Background(), prismic.Query{
		Predicates: []prismic.Predicate{{Name: "fulltext", Path: "document", Args: []any{"ring"}}},
	})
	if !errors.Is(err, ErrUnsupportedPredicate) {
		t.Fatalf("expected ErrUnsupportedPredicate, got %v", err)
	}
}

func TestLoadSeedDerivesIDs(t *testing.T) {
	docs, err := LoadSeed(strings.NewReader("documents:\n  - type: about\n  - type: product\n    uid: cup\n"))
	if err != nil {
		t.Fatalf("LoadSeed returned error: %v", err)
	}
	got := []string{docs[0].ID, docs[1].ID}
	if diff := cmp.Diff([]string{"about", "product-cup"}, got); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
}
