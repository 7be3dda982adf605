package services

import (
	"log"

	"github.com/meilisearch/meilisearch-go"
	"github.com/platedev/tastebite-api/internal/config"
	"github.com/platedev/tastebite-api/internal/models"
)

type SearchService struct {
	client *meilisearch.Client
	index  string
}

func NewSearchService(cfg *config.Config) *SearchService {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   cfg.MeiliURL,
		APIKey: cfg.MeiliAPIKey,
	})

	// Ensure dishes index exists (best effort)
	_, err := client.GetIndex("dishes")
	if err != nil {
		_, err = client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        "dishes",
			PrimaryKey: "id",
		})
		if err != nil {
			log.Printf("Failed to create meilisearch dishes index: %v", err)
		}

		_, err = client.Index("dishes").UpdateFilterableAttributes(&[]string{"tags"})
		if err != nil {
			log.Printf("Failed to update filterable attributes: %v", err)
		}

		_, err = client.Index("dishes").UpdateSortableAttributes(&[]string{"name", "created_at"})
		if err != nil {
			log.Printf("Failed to update sortable attributes: %v", err)
		}

		_, err = client.Index("dishes").UpdateSearchableAttributes(&[]string{"name", "description", "tags", "ingredients"})
		if err != nil {
			log.Printf("Failed to update searchable attributes: %v", err)
		}
	}

	return &SearchService{
		client: client,
		index:  "dishes",
	}
}

func (s *SearchService) IndexDish(dish models.Dish) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Dish{dish})
	return err
}

func (s *SearchService) IndexDishes(dishes []models.Dish) error {
	if len(dishes) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(dishes)
	return err
}

func (s *SearchService) DeleteDish(dishID string) error {
	_, err := s.client.Index(s.index).DeleteDocument(dishID)
	return err
}

// SearchDishes returns the ids of dishes matching the query, optionally
// restricted to a tag.
func (s *SearchService) SearchDishes(query string, tag string) ([]string, error) {
	request := &meilisearch.SearchRequest{
		Limit: 100,
	}
	if tag != "" {
		request.Filter = "tags = " + `"` + tag + `"`
	}

	result, err := s.client.Index(s.index).Search(query, request)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		doc, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *SearchService) GetDishCount() (int64, error) {
	stats, err := s.client.Index(s.index).GetStats()
	if err != nil {
		return 0, err
	}
	return stats.NumberOfDocuments, nil
}
