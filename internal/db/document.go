package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/storefront/internal/prismic"
)

// Document is a CMS document mirrored into the local store.
type Document struct {
	ID                   string `gorm:"primaryKey"`
	UID                  string `gorm:"index:idx_documents_type_uid"`
	Type                 string `gorm:"not null;index:idx_documents_type_uid"`
	Lang                 string `gorm:"index"`
	Tags                 string
	Slugs                string
	Href                 string
	FirstPublicationDate *time.Time `gorm:"index"`
	LastPublicationDate  *time.Time
	Data                 string `gorm:"type:text"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FromPrismic converts an API document into its stored form.
func FromPrismic(doc prismic.Document) (Document, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return Document{}, fmt.Errorf("document of type %q has no id", doc.Type)
	}
	if strings.TrimSpace(doc.Type) == "" {
		return Document{}, fmt.Errorf("document %q has no type", doc.ID)
	}

	data := doc.Data
	if data == nil {
		data = map[string]any{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return Document{}, fmt.Errorf("encode data of %q: %w", doc.ID, err)
	}

	return Document{
		ID:                   doc.ID,
		UID:                  doc.UID,
		Type:                 doc.Type,
		Lang:                 doc.Lang,
		Tags:                 strings.Join(doc.Tags, ","),
		Slugs:                strings.Join(doc.Slugs, ","),
		Href:                 doc.Href,
		FirstPublicationDate: timePtr(doc.FirstPublicationDate),
		LastPublicationDate:  timePtr(doc.LastPublicationDate),
		Data:                 string(encoded),
	}, nil
}

// ToPrismic converts a stored row back into the API shape.
func (d Document) ToPrismic() (prismic.Document, error) {
	data := map[string]any{}
	if strings.TrimSpace(d.Data) != "" {
		if err := json.Unmarshal([]byte(d.Data), &data); err != nil {
			return prismic.Document{}, fmt.Errorf("decode data of %q: %w", d.ID, err)
		}
	}

	doc := prismic.Document{
		ID:    d.ID,
		UID:   d.UID,
		Type:  d.Type,
		Href:  d.Href,
		Lang:  d.Lang,
		Tags:  splitList(d.Tags),
		Slugs: splitList(d.Slugs),
		Data:  data,
	}
	if d.FirstPublicationDate != nil {
		doc.FirstPublicationDate = &prismic.Time{Time: d.FirstPublicationDate.UTC()}
	}
	if d.LastPublicationDate != nil {
		doc.LastPublicationDate = &prismic.Time{Time: d.LastPublicationDate.UTC()}
	}
	return doc, nil
}

func timePtr(t *prismic.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	value := t.UTC()
	return &value
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
