package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/storefront/internal/config"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/prismic"
)

const (
	testCollectionCount  = 4
	productsPerCatalogue = 4
)

var collectionNames = []string{"Spring", "Summer", "Autumn", "Winter", "Archive"}

var productNames = []string{"Ring", "Chain", "Earrings", "Bracelet", "Pendant", "Brooch"}

// 测试数据生成器：向本地内容库写入一组集合与商品，便于在 CONTENT_SOURCE=local 下调试。
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	docs := buildTestDocuments(cfg.CollectionYear)
	if err := db.NewStore(db.DB).Put(context.Background(), docs...); err != nil {
		log.Fatal("写入测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("集合: %d 个，每个 %d 件商品\n", testCollectionCount, productsPerCatalogue)
	fmt.Println("另有一个往年集合，用于验证年份过滤")
}

// buildTestDocuments 生成共享单例、当年的集合以及一个往年集合。
func buildTestDocuments(year int) []prismic.Document {
	if year <= 0 {
		year = 2022
	}
	published := func(month, day int) *prismic.Time {
		return &prismic.Time{Time: time.Date(year, time.Month(month), day, 9, 0, 0, 0, time.UTC)}
	}

	docs := []prismic.Document{
		{ID: "meta", Type: "meta", FirstPublicationDate: published(1, 1), Data: map[string]any{
			"title":       "Storefront",
			"description": "Generated catalogue for local development.",
		}},
		{ID: "navigation", Type: "navigation", FirstPublicationDate: published(1, 1), Data: map[string]any{
			"list": []any{
				map[string]any{"text": "Collections", "link": documentLink("collections", "collections", "")},
				map[string]any{"text": "About", "link": documentLink("about", "about", "")},
			},
		}},
		{ID: "preloader", Type: "preloader", FirstPublicationDate: published(1, 1), Data: map[string]any{
			"title": "Loading",
		}},
		{ID: "home", Type: "home", FirstPublicationDate: published(1, 2), Data: map[string]any{
			"collections": "Explore all collections",
		}},
		{ID: "about", Type: "about", FirstPublicationDate: published(1, 2), Data: map[string]any{
			"title": "About",
		}},
	}

	for c := 0; c < testCollectionCount; c++ {
		collectionID := fmt.Sprintf("collection-%d", c+1)
		products := make([]any, 0, productsPerCatalogue)

		for p := 0; p < productsPerCatalogue; p++ {
			name := fmt.Sprintf("%s %s", collectionNames[c%len(collectionNames)], productNames[(c+p)%len(productNames)])
			uid := fmt.Sprintf("c%d-p%d", c+1, p+1)
			productID := "product-" + uid

			docs = append(docs, prismic.Document{
				ID:                   productID,
				UID:                  uid,
				Type:                 "product",
				FirstPublicationDate: published(2+c, 1+p),
				Data: map[string]any{
					"title": name,
					"image": map[string]any{
						"url": fmt.Sprintf("https://picsum.photos/seed/%s/900/1200", uid),
						"alt": name,
					},
					"collection": documentLink(collectionID, "collection", ""),
				},
			})
			products = append(products, map[string]any{
				"products_product": documentLink(productID, "product", uid),
			})
		}

		docs = append(docs, prismic.Document{
			ID:                   collectionID,
			Type:                 "collection",
			FirstPublicationDate: published(2+c, 15),
			Data: map[string]any{
				"title":       collectionNames[c%len(collectionNames)],
				"description": fmt.Sprintf("Generated collection #%d", c+1),
				"products":    products,
			},
		})
	}

	docs = append(docs, prismic.Document{
		ID:                   "collection-archive",
		Type:                 "collection",
		FirstPublicationDate: &prismic.Time{Time: time.Date(year-1, time.November, 2, 9, 0, 0, 0, time.UTC)},
		Data: map[string]any{
			"title":    "Archive",
			"products": []any{},
		},
	})

	return docs
}

func documentLink(id, docType, uid string) map[string]any {
	link := map[string]any{
		"link_type": "Document",
		"id":        id,
		"type":      docType,
	}
	if uid != "" {
		link["uid"] = uid
	}
	return link
}
