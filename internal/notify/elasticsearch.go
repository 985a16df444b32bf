package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// Elasticsearch indexes every change as a document keyed by its event ID
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewElasticsearch creates new Elasticsearch reporter
func NewElasticsearch(client *elasticsearch.Client, index string, logger *zap.Logger) (*Elasticsearch, error) {
	if client == nil {
		return nil, fmt.Errorf("elasticsearch client is nil")
	}
	if index == "" {
		return nil, fmt.Errorf("elasticsearch index is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Elasticsearch{client: client, index: index, logger: logger}, nil
}

// Name returns the reporter name
func (n *Elasticsearch) Name() string { return "elasticsearch" }

// Report indexes the change
func (n *Elasticsearch) Report(ctx context.Context, p *Payload) error {
	data, err := p.JSON()
	if err != nil {
		return fmt.Errorf("error encoding document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      n.index,
		DocumentID: p.EventID,
		Body:       bytes.NewReader(data),
	}

	res, err := req.Do(ctx, n.client)
	if err != nil {
		return fmt.Errorf("elasticsearch indexing error: %w", err)
	}
	defer closeBody(n.logger, res.Body)

	if res.IsError() {
		var respBody map[string]any
		if err := json.NewDecoder(res.Body).Decode(&respBody); err != nil {
			return fmt.Errorf("elasticsearch indexing error: %s", res.Status())
		}
		return fmt.Errorf("elasticsearch indexing error: %s: %v", res.Status(), respBody["error"])
	}

	return nil
}
