package view

import (
	"strings"

	"github.com/storefront/internal/prismic"
)

// DocumentKind is the closed set of document types that own a route.
type DocumentKind int

const (
	KindUnknown DocumentKind = iota
	KindProduct
	KindCollections
	KindAbout
)

// ParseKind maps a CMS type tag to a DocumentKind.
func ParseKind(docType string) DocumentKind {
	switch strings.TrimSpace(docType) {
	case "product":
		return KindProduct
	case "collections":
		return KindCollections
	case "about":
		return KindAbout
	default:
		return KindUnknown
	}
}

// linkTarget is the part of a document the resolver looks at.
type linkTarget struct {
	Type string
	Slug string
}

// Link resolves a document, a document link field or nil to a site path.
// It never fails: anything unrecognised resolves to "/".
func Link(doc any) string {
	target := targetOf(doc)
	switch ParseKind(target.Type) {
	case KindProduct:
		return "/detail/" + target.Slug
	case KindCollections:
		return "/collections"
	case KindAbout:
		return "/about"
	default:
		return "/"
	}
}

func targetOf(doc any) linkTarget {
	switch value := doc.(type) {
	case *prismic.Document:
		if value == nil {
			return linkTarget{}
		}
		return linkTarget{Type: value.Type, Slug: value.Slug()}
	case prismic.Document:
		return linkTarget{Type: value.Type, Slug: value.Slug()}
	case map[string]any:
		target := linkTarget{Type: stringField(value, "type")}
		for _, key := range []string{"slug", "uid"} {
			if slug := stringField(value, key); slug != "" {
				target.Slug = slug
				break
			}
		}
		return target
	default:
		return linkTarget{}
	}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	value, _ := m[key].(string)
	return strings.TrimSpace(value)
}
