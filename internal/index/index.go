// Package index is the external indexing interface stub named in §1: the
// core crawl pipeline never talks to a search engine directly, only to
// this interface, so swapping the concrete index implementation never
// touches internal/worker or internal/store.
package index

import (
	"context"
	"encoding/json"

	"github.com/gomarkdown/markdown"

	"github.com/dhansen/plenarycrawl/internal/store"
)

// Shipper is the external-collaborator contract: push an extracted
// document to the search index, or remove it.
type Shipper interface {
	Index(ctx context.Context, doc store.Document) error
	Unindex(ctx context.Context, doc store.Document) error
	Reindex(ctx context.Context, mappingPath string) error
}

// ElasticConnection names the external service this stub would dial in a
// full implementation (config only; no network call is made here).
type ElasticConnection struct {
	Addr      string
	IndexName string
}

// StubShipper renders a human-readable preview of each document's
// extracted data (via gomarkdown) and discards it instead of making a
// network call — this fulfills the external-indexing-interface contract from the
// spec's scope boundary without implementing Elasticsearch.
type StubShipper struct {
	conn ElasticConnection
}

func NewStubShipper(conn ElasticConnection) *StubShipper {
	return &StubShipper{conn: conn}
}

var _ Shipper = (*StubShipper)(nil)

func (s *StubShipper) Index(ctx context.Context, doc store.Document) error {
	_, err := s.preview(doc)
	return err
}

func (s *StubShipper) Unindex(ctx context.Context, doc store.Document) error {
	return nil
}

// Reindex is the mapping-reload entry point. The stub neither opens nor
// validates the mapping file and replays no documents; it always returns
// nil.
func (s *StubShipper) Reindex(ctx context.Context, mappingPath string) error {
	return nil
}

// preview renders the document's extracted data as a Markdown-derived
// HTML snippet, the one concrete artifact a real index shipper would
// attach as a search-result preview.
func (s *StubShipper) preview(doc store.Document) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return "", err
	}

	var buf []byte
	for key, val := range fields {
		buf = append(buf, []byte("**"+key+"**: ")...)
		encoded, _ := json.Marshal(val)
		buf = append(buf, encoded...)
		buf = append(buf, '\n', '\n')
	}

	html := markdown.ToHTML(buf, nil, nil)
	return string(html), nil
}
