// Package search indexes security events into Elasticsearch and serves the
// audit search used by administrators. The index is write-only from the auth
// path; a missing client disables both sides.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/titanaprilian/authguard/internal/events"
	"github.com/titanaprilian/authguard/pkg/logging"
)

type AuditIndexer struct {
	ES    *elasticsearch.Client
	Index string
}

func (a *AuditIndexer) IndexEvent(ctx context.Context, e events.Event) error {
	if a == nil || a.ES == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(e); err != nil {
		return fmt.Errorf("audit: encode event: %w", err)
	}

	res, err := a.ES.Index(
		a.Index,
		&buf,
		a.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("audit: index event: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("audit: index event: %s", res.Status())
	}
	return nil
}

// Emit indexes and logs the failure instead of returning it.
func (a *AuditIndexer) Emit(ctx context.Context, e events.Event) {
	if err := a.IndexEvent(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit index failed", "type", e.Type, "error", err)
	}
}

func (a *AuditIndexer) Search(ctx context.Context, query string, from, size int) (int64, []events.Event, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"type^2", "email", "entity", "detail"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
		"sort": []map[string]interface{}{{"at": map[string]string{"order": "desc"}}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("audit: encode query: %w", err)
	}

	res, err := a.ES.Search(
		a.ES.Search.WithContext(ctx),
		a.ES.Search.WithIndex(a.Index),
		a.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("audit: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("audit: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source events.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("audit: decode response: %w", err)
	}

	out := make([]events.Event, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return r.Hits.Total.Value, out, nil
}
