package view

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/storefront/internal/prismic"
)

// FuncMap exposes the view helpers to templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"link":       Link,
		"Numbers":    Numbers,
		"asText":     AsText,
		"asHTML":     AsHTML,
		"asMarkdown": AsMarkdown,
		"asImageSrc": AsImageSrc,
		"asDate":     AsDate,
		"get":        Get,
		"add": func(a, b int) int {
			return a + b
		},
		"year": func() int {
			return time.Now().Year()
		},
	}
}

// Get walks a dotted path through a document and the decoded JSON below it,
// e.g. `get .product "collection.data.title"`. Missing steps yield nil.
func Get(value any, path string) any {
	current := value
	for _, key := range strings.Split(path, ".") {
		if key == "" {
			continue
		}
		current = step(current, key)
		if current == nil {
			return nil
		}
	}
	return current
}

func step(value any, key string) any {
	switch v := value.(type) {
	case *prismic.Document:
		if v == nil {
			return nil
		}
		return documentKey(v, key)
	case prismic.Document:
		return documentKey(&v, key)
	case map[string]any:
		return v[key]
	case []any:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(v) {
			return nil
		}
		return v[index]
	default:
		return nil
	}
}

func documentKey(doc *prismic.Document, key string) any {
	switch key {
	case "id":
		return doc.ID
	case "uid":
		return doc.UID
	case "type":
		return doc.Type
	case "lang":
		return doc.Lang
	case "data":
		return doc.Data
	default:
		return doc.Field(key)
	}
}
