package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/storefront/internal/prismic"
	"gopkg.in/yaml.v3"
)

// SeedFile 描述 YAML 种子文件的结构。
type SeedFile struct {
	Documents []SeedDocument `yaml:"documents"`
}

// SeedDocument 是种子文件中的单个文档。
type SeedDocument struct {
	ID                   string         `yaml:"id"`
	UID                  string         `yaml:"uid"`
	Type                 string         `yaml:"type"`
	Lang                 string         `yaml:"lang"`
	Tags                 []string       `yaml:"tags"`
	Slugs                []string       `yaml:"slugs"`
	FirstPublicationDate string         `yaml:"first_publication_date"`
	LastPublicationDate  string         `yaml:"last_publication_date"`
	Data                 map[string]any `yaml:"data"`
}

// LoadSeed parses a YAML seed document set.
func LoadSeed(r io.Reader) ([]prismic.Document, error) {
	var file SeedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	docs := make([]prismic.Document, 0, len(file.Documents))
	for i, item := range file.Documents {
		doc, err := item.toPrismic()
		if err != nil {
			return nil, fmt.Errorf("seed document #%d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SeedFromFile loads a YAML file into the store and returns the number of documents written.
func SeedFromFile(ctx context.Context, store *Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	docs, err := LoadSeed(f)
	if err != nil {
		return 0, err
	}
	if err := store.Put(ctx, docs...); err != nil {
		return 0, fmt.Errorf("store seed documents: %w", err)
	}
	return len(docs), nil
}

func (s SeedDocument) toPrismic() (prismic.Document, error) {
	doc := prismic.Document{
		ID:    strings.TrimSpace(s.ID),
		UID:   strings.TrimSpace(s.UID),
		Type:  strings.TrimSpace(s.Type),
		Lang:  strings.TrimSpace(s.Lang),
		Tags:  s.Tags,
		Slugs: s.Slugs,
	}
	if doc.ID == "" {
		doc.ID = doc.Type
		if doc.UID != "" {
			doc.ID = doc.Type + "-" + doc.UID
		}
	}

	for _, field := range []struct {
		raw string
		dst **prismic.Time
	}{
		{s.FirstPublicationDate, &doc.FirstPublicationDate},
		{s.LastPublicationDate, &doc.LastPublicationDate},
	} {
		if strings.TrimSpace(field.raw) == "" {
			continue
		}
		parsed, err := prismic.ParseTime(field.raw)
		if err != nil {
			return prismic.Document{}, err
		}
		*field.dst = &prismic.Time{Time: parsed}
	}

	data, err := normalizeYAML(s.Data)
	if err != nil {
		return prismic.Document{}, err
	}
	doc.Data = data
	return doc, nil
}

// normalizeYAML round-trips through JSON so nested values have the same
// types the remote API decoder produces.
func normalizeYAML(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return out, nil
}
