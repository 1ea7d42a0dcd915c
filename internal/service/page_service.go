package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/storefront/internal/prismic"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCollectionYear is the publication year the collection listing shows.
	DefaultCollectionYear = 2022

	collectionFetchLinks = "product.image"
	productFetchLinks    = "collection.title"
)

type HomePage struct {
	Defaults
	Home        *prismic.Document
	Collections []prismic.Document
}

type AboutPage struct {
	Defaults
	About *prismic.Document
}

type CollectionsPage struct {
	Defaults
	Home        *prismic.Document
	Collections []prismic.Document
}

type DetailPage struct {
	Defaults
	Product *prismic.Document
}

// PageService 为每个路由组装渲染所需的数据。所有请求在同一个 errgroup 中并发执行，
// 渲染前统一等待。
type PageService struct {
	collectionYear int
}

// NewPageService returns a loader filtering collections to collectionYear.
func NewPageService(collectionYear int) *PageService {
	if collectionYear <= 0 {
		collectionYear = DefaultCollectionYear
	}
	return &PageService{collectionYear: collectionYear}
}

// CollectionYear reports the configured listing year.
func (s *PageService) CollectionYear() int {
	return s.collectionYear
}

// CollectionsQuery 返回集合列表查询：type = collection 且首次发布年份匹配。
func (s *PageService) CollectionsQuery() prismic.Query {
	return prismic.Query{
		Predicates: []prismic.Predicate{
			prismic.DateYear(prismic.PathFirstPublication, s.collectionYear),
			prismic.At(prismic.PathDocumentType, TypeCollection),
		},
		FetchLinks: []string{collectionFetchLinks},
	}
}

// Home loads the landing page.
func (s *PageService) Home(ctx context.Context, client Reader) (HomePage, error) {
	var page HomePage
	err := s.run(ctx, client, &page.Defaults, func(gctx context.Context, g *errgroup.Group) {
		fetchSingle(gctx, g, client, TypeHome, &page.Home)
		s.fetchCollections(gctx, g, client, &page.Collections)
	})
	if err != nil {
		return HomePage{}, err
	}
	return page, nil
}

// About loads the about page.
func (s *PageService) About(ctx context.Context, client Reader) (AboutPage, error) {
	var page AboutPage
	err := s.run(ctx, client, &page.Defaults, func(gctx context.Context, g *errgroup.Group) {
		fetchSingle(gctx, g, client, TypeAbout, &page.About)
	})
	if err != nil {
		return AboutPage{}, err
	}
	return page, nil
}

// Collections loads the collection listing.
func (s *PageService) Collections(ctx context.Context, client Reader) (CollectionsPage, error) {
	var page CollectionsPage
	err := s.run(ctx, client, &page.Defaults, func(gctx context.Context, g *errgroup.Group) {
		fetchSingle(gctx, g, client, TypeHome, &page.Home)
		s.fetchCollections(gctx, g, client, &page.Collections)
	})
	if err != nil {
		return CollectionsPage{}, err
	}
	return page, nil
}

// Detail loads one product by uid. The uid is passed through verbatim.
func (s *PageService) Detail(ctx context.Context, client Reader, uid string) (DetailPage, error) {
	var page DetailPage
	err := s.run(ctx, client, &page.Defaults, func(gctx context.Context, g *errgroup.Group) {
		g.Go(func() error {
			product, err := client.GetByUID(gctx, TypeProduct, uid, productFetchLinks)
			if err != nil {
				return fmt.Errorf("load product %q: %w", uid, err)
			}
			page.Product = product
			return nil
		})
	})
	if err != nil {
		return DetailPage{}, err
	}
	return page, nil
}

func (s *PageService) run(ctx context.Context, client Reader, defaults *Defaults, schedule func(context.Context, *errgroup.Group)) error {
	g, gctx := errgroup.WithContext(ctx)
	shared, err := loadDefaultsInto(gctx, g, client)
	if err != nil {
		return err
	}
	schedule(gctx, g)
	if err := g.Wait(); err != nil {
		return err
	}
	*defaults = *shared
	return nil
}

func (s *PageService) fetchCollections(ctx context.Context, g *errgroup.Group, client Reader, dst *[]prismic.Document) {
	g.Go(func() error {
		resp, err := client.Get(ctx, s.CollectionsQuery())
		if err != nil {
			return fmt.Errorf("load collections: %w", err)
		}
		*dst = s.filterCollections(resp.Results)
		return nil
	})
}

// filterCollections keeps only collection documents first published in the
// configured year, preserving the order the source returned.
func (s *PageService) filterCollections(docs []prismic.Document) []prismic.Document {
	filtered := make([]prismic.Document, 0, len(docs))
	for _, doc := range docs {
		if !strings.EqualFold(doc.Type, TypeCollection) {
			continue
		}
		if doc.PublishedYear() != s.collectionYear {
			continue
		}
		filtered = append(filtered, doc)
	}
	return filtered
}
