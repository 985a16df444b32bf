package connection

import (
	"context"
	"fmt"

	"netloc/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// newElasticsearch creates new Elasticsearch client
func newElasticsearch(ctx context.Context, cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch configuration is nil or empty")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch connect error: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info error: %s", res.Status())
	}

	return es, nil
}
