package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront/internal/prismic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalRef is the only ref the local store knows about.
const LocalRef = "local"

// ErrUnsupportedPredicate 表示本地内容库无法解释该查询条件。
var ErrUnsupportedPredicate = errors.New("unsupported predicate")

// Store answers content queries from the local sqlite mirror. It implements
// prismic.Source so handlers cannot tell it apart from the remote API.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store backed by gdb.
func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// MasterRef always returns LocalRef; the mirror has a single release.
func (s *Store) MasterRef(context.Context) (string, error) {
	return LocalRef, nil
}

// Query evaluates the supported predicates and resolves fetchLinks.
func (s *Store) Query(ctx context.Context, q prismic.Query) (prismic.Response, error) {
	q = q.Normalized()

	tx := s.db.WithContext(ctx).Model(&Document{})
	for _, predicate := range q.Predicates {
		next, err := applyPredicate(tx, predicate)
		if err != nil {
			return prismic.Response{}, &prismic.Error{Status: 400, Message: "invalid content query", Err: err}
		}
		tx = next
	}
	if q.Lang != "" && q.Lang != "*" {
		tx = tx.Where("(lang = ? OR lang = '')", q.Lang)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return prismic.Response{}, storeFailure(err)
	}

	var rows []Document
	if err := tx.
		Order("first_publication_date DESC").
		Order("id").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&rows).Error; err != nil {
		return prismic.Response{}, storeFailure(err)
	}

	results := make([]prismic.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.ToPrismic()
		if err != nil {
			return prismic.Response{}, storeFailure(err)
		}
		results = append(results, doc)
	}

	if err := s.resolveLinks(ctx, results, q.FetchLinks); err != nil {
		return prismic.Response{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}
	return prismic.Response{
		Page:             q.Page,
		ResultsPerPage:   q.PageSize,
		ResultsSize:      len(results),
		TotalResultsSize: int(total),
		TotalPages:       totalPages,
		Results:          results,
	}, nil
}

// Put inserts or replaces documents.
func (s *Store) Put(ctx context.Context, docs ...prismic.Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]Document, 0, len(docs))
	for _, doc := range docs {
		row, err := FromPrismic(doc)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

// Delete removes documents by id.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Document{}).Error
}

func applyPredicate(tx *gorm.DB, p prismic.Predicate) (*gorm.DB, error) {
	switch p.Name {
	case prismic.PredicateAt:
		value, ok := p.StringArg(0)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string", ErrUnsupportedPredicate, p)
		}
		switch {
		case p.Path == prismic.PathDocumentType:
			return tx.Where("type = ?", value), nil
		case p.Path == prismic.PathDocumentID:
			return tx.Where("id = ?", value), nil
		case strings.HasPrefix(p.Path, "my.") && strings.HasSuffix(p.Path, ".uid"):
			docType := strings.TrimSuffix(strings.TrimPrefix(p.Path, "my."), ".uid")
			return tx.Where("(type = ? AND uid = ?)", docType, value), nil
		}
	case prismic.PredicateDateYear:
		year, ok := p.IntArg(0)
		if !ok || p.Path != prismic.PathFirstPublication {
			break
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		return tx.Where("first_publication_date >= ? AND first_publication_date < ?", start, end), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPredicate, p)
}

// resolveLinks copies the requested fields of linked documents into each
// document link, matching the remote API's fetchLinks behaviour.
func (s *Store) resolveLinks(ctx context.Context, docs []prismic.Document, fetchLinks []string) error {
	fields := parseFetchLinks(fetchLinks)
	if len(fields) == 0 || len(docs) == 0 {
		return nil
	}

	ids := make(map[string]struct{})
	for i := range docs {
		walkDocumentLinks(docs[i].Data, func(link map[string]any) {
			linkType, _ := link["type"].(string)
			if _, wanted := fields[linkType]; !wanted {
				return
			}
			if id, _ := link["id"].(string); id != "" {
				ids[id] = struct{}{}
			}
		})
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids))
	for id := range ids {
		keys = append(keys, id)
	}
	var rows []Document
	if err := s.db.WithContext(ctx).Where("id IN ?", keys).Find(&rows).Error; err != nil {
		return storeFailure(err)
	}

	linked := make(map[string]prismic.Document, len(rows))
	for _, row := range rows {
		doc, err := row.ToPrismic()
		if err != nil {
			return storeFailure(err)
		}
		linked[doc.ID] = doc
	}

	for i := range docs {
		walkDocumentLinks(docs[i].Data, func(link map[string]any) {
			id, _ := link["id"].(string)
			target, ok := linked[id]
			if !ok {
				return
			}
			wanted, ok := fields[target.Type]
			if !ok {
				return
			}
			data := make(map[string]any, len(wanted))
			for _, field := range wanted {
				if value, exists := target.Data[field]; exists {
					data[field] = value
				}
			}
			link["data"] = data
			if _, exists := link["uid"]; !exists && target.UID != "" {
				link["uid"] = target.UID
			}
			if _, exists := link["slug"]; !exists {
				if slug := target.Slug(); slug != "" {
					link["slug"] = slug
				}
			}
			if _, exists := link["lang"]; !exists && target.Lang != "" {
				link["lang"] = target.Lang
			}
		})
	}
	return nil
}

func parseFetchLinks(fetchLinks []string) map[string][]string {
	fields := make(map[string][]string)
	for _, entry := range fetchLinks {
		for _, item := range strings.Split(entry, ",") {
			docType, field, ok := strings.Cut(strings.TrimSpace(item), ".")
			if !ok || docType == "" || field == "" {
				continue
			}
			fields[docType] = append(fields[docType], field)
		}
	}
	return fields
}

func walkDocumentLinks(node any, visit func(map[string]any)) {
	switch value := node.(type) {
	case map[string]any:
		if linkType, _ := value["link_type"].(string); linkType == "Document" {
			if _, ok := value["id"].(string); ok {
				visit(value)
				return
			}
		}
		for _, child := range value {
			walkDocumentLinks(child, visit)
		}
	case []any:
		for _, child := range value {
			walkDocumentLinks(child, visit)
		}
	}
}

func storeFailure(err error) error {
	return &prismic.Error{Status: 500, Message: "local content store failed", Err: err}
}
