package search

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document is the denormalized shape pushed into the search index for any
// resource kind. ID is "<kind>:<uuid>" so kinds never collide.
type Document struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	Platform         string    `json:"platform"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"short_description"`
	Content          string    `json:"content"`
	Topics           []string  `json:"topics"`
	OfferedBy        []string  `json:"offered_by"`
	UpdatedOn        time.Time `json:"updated_on"`
}

func DocumentID(kind string, id fmt.Stringer) string {
	return kind + ":" + id.String()
}

// Index is the write surface of the search layer. The dispatcher is its only
// caller inside this engine.
type Index interface {
	Upsert(doc Document) error
	Delete(id string) error
	Close() error
}

type bleveIndex struct {
	idx bleve.Index
}

// Open opens or creates a bleve index at path.
func Open(path string) (Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &bleveIndex{idx: idx}, nil
}

// OpenInMemory is used by tests and local one-shot runs.
func OpenInMemory() (Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory index: %w", err)
	}
	return &bleveIndex{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("title", titleField)

	contentField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("content", contentField)

	kindField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("kind", kindField)
	platformField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("platform", platformField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (b *bleveIndex) Upsert(doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id required")
	}
	return b.idx.Index(doc.ID, doc)
}

func (b *bleveIndex) Delete(id string) error {
	return b.idx.Delete(id)
}

func (b *bleveIndex) Close() error {
	return b.idx.Close()
}
