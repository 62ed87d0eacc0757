package history

import (
	"fmt"

	"go-krea-generate/internal/models"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"
)

// indexDoc is the searchable projection of a provenance record. Fields are
// queryable by their lowercase JSON tag names (e.g. '+operation:generate' or
// '+prompt:bicycle').
type indexDoc struct {
	Timestamp string `json:"timestamp"`
	Operation string `json:"operation"`
	Prompt    string `json:"prompt,omitempty"`
	Model     string `json:"model,omitempty"`
	Engine    string `json:"engine,omitempty"`
	LocalPath string `json:"localPath"`
	RemoteURL string `json:"remoteUrl"`
}

// SearchHit is one index match.
type SearchHit struct {
	Timestamp string
	Operation string
	Prompt    string
	LocalPath string
	Score     float64
}

// Index wraps the bleve index over provenance records.
type Index struct {
	idx bleve.Index
}

// OpenOrCreateIndex opens an existing index or creates a new one at path.
func OpenOrCreateIndex(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		log.Debugf("Creating new history index at: %s", path)
		mapping := bleve.NewIndexMapping()
		idx, err = bleve.New(path, mapping)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

// IndexRecord adds or updates a record in the index, keyed by timestamp and
// local path so repeated runs in the same second don't collide.
func (i *Index) IndexRecord(rec models.GenerationRecord) error {
	doc := indexDoc{
		Timestamp: rec.Timestamp,
		Operation: rec.Operation,
		Prompt:    rec.Prompt,
		Model:     rec.Model,
		Engine:    rec.Engine,
		LocalPath: rec.LocalPath,
		RemoteURL: rec.RemoteURL,
	}
	id := fmt.Sprintf("%s|%s", rec.Timestamp, rec.LocalPath)
	return i.idx.Index(id, doc)
}

// Search runs a query-string query and returns stored fields for each hit.
func (i *Index) Search(query string) ([]SearchHit, error) {
	searchQuery := bleve.NewQueryStringQuery(query)
	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.Fields = []string{"*"}
	results, err := i.idx.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		h := SearchHit{Score: hit.Score}
		if v, ok := hit.Fields["timestamp"].(string); ok {
			h.Timestamp = v
		}
		if v, ok := hit.Fields["operation"].(string); ok {
			h.Operation = v
		}
		if v, ok := hit.Fields["prompt"].(string); ok {
			h.Prompt = v
		}
		if v, ok := hit.Fields["localPath"].(string); ok {
			h.LocalPath = v
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Close closes the underlying bleve index.
func (i *Index) Close() error {
	return i.idx.Close()
}
