package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	model "github.com/caseboard/caseboard/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const actionIndex = "legal_actions"

// SearchService indexes seeded legal actions into Elasticsearch and serves
// free-text search over them. The client is optional: without
// ELASTICSEARCH_URL the dashboard works and only /search is degraded.
type SearchService struct {
	esClient *elasticsearch.Client
}

func NewSearchService() (*SearchService, error) {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	var esClient *elasticsearch.Client
	if esURL != "" {
		esConfig := elasticsearch.Config{
			Addresses: []string{esURL},
		}
		var err error
		esClient, err = elasticsearch.NewClient(esConfig)
		if err != nil {
			log.Printf("Warning: Failed to create Elasticsearch client: %v", err)
			esClient = nil
		}
	}
	return &SearchService{esClient: esClient}, nil
}

// IndexLegalAction indexes one action document. Indexing failures are
// logged, not propagated: a dead search index must not break seeding.
func (s *SearchService) IndexLegalAction(action model.LegalAction, companyName, industryName string) error {
	if s.esClient == nil {
		return nil
	}

	doc := map[string]interface{}{
		"action_id":     action.ID,
		"title":         action.Title,
		"action_type":   action.ActionType,
		"status":        action.Status,
		"company_name":  companyName,
		"industry_name": industryName,
		"date":          action.Date.UTC(),
		"timestamp":     time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal action for indexing: %w", err)
	}

	res, err := s.esClient.Index(
		actionIndex,
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(action.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("Elasticsearch indexing error: %v", err)
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("Elasticsearch indexing failed: %s", res.String())
		return nil
	}
	return nil
}

// SearchActions runs a multi-field match over the indexed actions.
func (s *SearchService) SearchActions(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title", "action_type", "company_name", "industry_name"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex(actionIndex),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var actions []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		actions = append(actions, source)
	}

	return actions, nil
}
