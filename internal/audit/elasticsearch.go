package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
)

type elasticsearchSink struct {
	es     *elasticsearch.Client
	prefix string
}

// NewElasticsearchSink indexes events into monthly indices named
// <prefix>_YYYY.MM.
func NewElasticsearchSink(es *elasticsearch.Client, prefix string) Sink {
	return &elasticsearchSink{es: es, prefix: prefix}
}

func (s *elasticsearchSink) Name() string { return "elasticsearch" }

func (s *elasticsearchSink) Index(event *Event) string {
	return s.prefix + "_" + event.Timestamp.Format("2006.01")
}

func (s *elasticsearchSink) Write(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	res, err := s.es.Index(
		s.Index(event),
		bytes.NewReader(payload),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(event.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index audit event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elasticsearch rejected audit event: %s: %s", res.Status(), body)
	}
	return nil
}

func (s *elasticsearchSink) Close(context.Context) error { return nil }
