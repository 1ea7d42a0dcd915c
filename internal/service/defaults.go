package service

import (
	"context"
	"fmt"

	"github.com/storefront/internal/prismic"
	"golang.org/x/sync/errgroup"
)

// Singleton document types shared by every page.
const (
	TypeMeta       = "meta"
	TypeNavigation = "navigation"
	TypePreloader  = "preloader"
	TypeHome       = "home"
	TypeAbout      = "about"
	TypeCollection = "collection"
	TypeProduct    = "product"
)

// Defaults 是每个页面都需要的共享内容。
type Defaults struct {
	Meta       *prismic.Document
	Navigation *prismic.Document
	Preloader  *prismic.Document
}

// LoadDefaults fetches meta, navigation and preloader concurrently. The first
// failure cancels the others and no partial bag is returned.
func LoadDefaults(ctx context.Context, client Reader) (Defaults, error) {
	g, gctx := errgroup.WithContext(ctx)
	defaults, err := loadDefaultsInto(gctx, g, client)
	if err != nil {
		return Defaults{}, err
	}
	if err := g.Wait(); err != nil {
		return Defaults{}, err
	}
	return *defaults, nil
}

// loadDefaultsInto schedules the shared fetches on g. The returned bag is
// only complete once g.Wait returns nil.
func loadDefaultsInto(ctx context.Context, g *errgroup.Group, client Reader) (*Defaults, error) {
	if client == nil {
		return nil, ErrNoSource
	}
	defaults := &Defaults{}
	fetchSingle(ctx, g, client, TypeMeta, &defaults.Meta)
	fetchSingle(ctx, g, client, TypeNavigation, &defaults.Navigation)
	fetchSingle(ctx, g, client, TypePreloader, &defaults.Preloader)
	return defaults, nil
}

func fetchSingle(ctx context.Context, g *errgroup.Group, client Reader, docType string, dst **prismic.Document, fetchLinks ...string) {
	g.Go(func() error {
		doc, err := client.GetSingle(ctx, docType, fetchLinks...)
		if err != nil {
			return fmt.Errorf("load %s: %w", docType, err)
		}
		*dst = doc
		return nil
	})
}
