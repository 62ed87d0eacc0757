package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-krea-generate/internal/helpers"
	"go-krea-generate/internal/models"

	log "github.com/sirupsen/logrus"
)

// ErrNoHistory is returned when an operation chains on "last" but no prior
// result exists.
var ErrNoHistory = errors.New("no previous result found (generate an image first or provide a URL)")

const (
	logFileName    = "generation_log.jsonl"
	latestFileName = "last_image.json"
)

// Store persists provenance: an append-only newline-delimited JSON log of
// every operation plus a single "latest" record file that chained operations
// read. The store assumes a single writer; concurrent invocations against
// the same directory may interleave writes.
type Store struct {
	logPath    string
	latestPath string
	index      *Index
}

// Open creates a Store rooted at dir. When indexPath is non-empty a search
// index over past prompts is opened (or created) there as well.
func Open(dir, indexPath string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if !helpers.CheckAndMakeDir(dir) {
		return nil, fmt.Errorf("failed to create history directory %s", dir)
	}

	s := &Store{
		logPath:    filepath.Join(dir, logFileName),
		latestPath: filepath.Join(dir, latestFileName),
	}

	if indexPath != "" {
		idx, err := OpenOrCreateIndex(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history index: %w", err)
		}
		s.index = idx
	}
	return s, nil
}

// Append writes one record to the log, overwrites the latest pointer with the
// same content, and indexes the record when an index is open.
func (s *Store) Append(rec models.GenerationRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error marshalling history record: %w", err)
	}

	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening history log %s: %w", s.logPath, err)
	}
	_, writeErr := f.Write(append(line, '\n'))
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("error appending to history log %s: %w", s.logPath, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("error closing history log %s: %w", s.logPath, closeErr)
	}

	latest, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling latest record: %w", err)
	}
	if err := os.WriteFile(s.latestPath, latest, 0644); err != nil {
		return fmt.Errorf("error writing latest record %s: %w", s.latestPath, err)
	}

	if s.index != nil {
		if err := s.index.IndexRecord(rec); err != nil {
			// Index failures don't invalidate the persisted record.
			log.WithError(err).Warn("Failed to index history record")
		}
	}
	return nil
}

// Latest returns the most recent record. A missing latest file is not an
// error condition of the store itself; it signals no prior operation.
func (s *Store) Latest() (models.GenerationRecord, error) {
	data, err := os.ReadFile(s.latestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.GenerationRecord{}, ErrNoHistory
		}
		return models.GenerationRecord{}, fmt.Errorf("error reading latest record %s: %w", s.latestPath, err)
	}
	var rec models.GenerationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.GenerationRecord{}, fmt.Errorf("error unmarshalling latest record: %w", err)
	}
	return rec, nil
}

// Recent returns up to n records from the end of the log, oldest first.
func (s *Store) Recent(n int) ([]models.GenerationRecord, error) {
	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error opening history log %s: %w", s.logPath, err)
	}
	defer f.Close()

	var records []models.GenerationRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec models.GenerationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			log.WithError(err).Warn("Skipping malformed history log line")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning history log: %w", err)
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Search queries the prompt index. Requires the store to have been opened
// with an index path.
func (s *Store) Search(query string) ([]SearchHit, error) {
	if s.index == nil {
		return nil, errors.New("history search index is not enabled")
	}
	return s.index.Search(query)
}

// Close releases the search index, if open.
func (s *Store) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
