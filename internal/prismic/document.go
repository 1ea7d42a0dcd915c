package prismic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Time wraps publication timestamps returned by the content API.
// The API emits offsets without a colon (2022-03-14T10:20:30+0000).
type Time struct {
	time.Time
}

var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

// ParseTime 按内容 API 支持的几种格式解析时间字符串。
func ParseTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", raw)
}

// UnmarshalJSON accepts null, the API layout and RFC3339.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes the API layout so documents round-trip unchanged.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05-0700"))
}

// Document is a single CMS document. Data is owned by the CMS schema and
// passed through to templates untouched.
type Document struct {
	ID                   string         `json:"id"`
	UID                  string         `json:"uid,omitempty"`
	Type                 string         `json:"type"`
	Href                 string         `json:"href,omitempty"`
	Tags                 []string       `json:"tags"`
	Lang                 string         `json:"lang,omitempty"`
	Slugs                []string       `json:"slugs,omitempty"`
	FirstPublicationDate *Time          `json:"first_publication_date"`
	LastPublicationDate  *Time          `json:"last_publication_date"`
	Data                 map[string]any `json:"data"`
}

// PublishedYear returns the year of first publication, or 0 when unknown.
func (d *Document) PublishedYear() int {
	if d == nil || d.FirstPublicationDate == nil || d.FirstPublicationDate.IsZero() {
		return 0
	}
	return d.FirstPublicationDate.UTC().Year()
}

// Slug returns the most specific slug available for the document.
func (d *Document) Slug() string {
	if d == nil {
		return ""
	}
	if d.UID != "" {
		return d.UID
	}
	if len(d.Slugs) > 0 {
		return d.Slugs[0]
	}
	return ""
}

// Field returns a top-level data field.
func (d *Document) Field(name string) any {
	if d == nil || d.Data == nil {
		return nil
	}
	return d.Data[name]
}

// Response is one page of a document search.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Ref is a content release pointer; the master ref is the published content.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type repository struct {
	Refs []Ref `json:"refs"`
}

func (r repository) master() (string, bool) {
	for _, ref := range r.Refs {
		if ref.IsMasterRef && ref.Ref != "" {
			return ref.Ref, true
		}
	}
	return "", false
}
