package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gather/internal/observability"
)

// fileRecord is the on-disk line format: id plus the entity's raw JSON.
type fileRecord struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// FileGateway persists a collection as one JSON-lines file under the data
// directory, one file per collection as in a classic flat-file layout.
type FileGateway struct {
	path       string
	collection string
}

// NewFileGateway returns a gateway storing the named collection at
// <dataDir>/<collection>.jsonl.
func NewFileGateway(dataDir, collection string) *FileGateway {
	return &FileGateway{
		path:       filepath.Join(dataDir, collection+".jsonl"),
		collection: collection,
	}
}

// LoadAll reads every record in file order. A missing file is an empty
// collection, not an error: first startup has nothing on disk yet.
func (g *FileGateway) LoadAll(_ context.Context) ([]Record, error) {
	f, err := os.Open(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", g.path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var fr fileRecord
		if err := json.Unmarshal(scanner.Bytes(), &fr); err != nil {
			return nil, fmt.Errorf("decode %s line %d: %w", g.path, line, err)
		}
		records = append(records, Record{ID: fr.ID, Data: []byte(fr.Data)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", g.path, err)
	}
	return records, nil
}

// SaveAll rewrites the whole collection. The write goes to a temp file
// first and is renamed into place so a crash mid-write cannot truncate the
// collection.
func (g *FileGateway) SaveAll(_ context.Context, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(g.path), "."+g.collection+"-*")
	if err != nil {
		observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(fileRecord{ID: r.ID, Data: json.RawMessage(r.Data)}); err != nil {
			tmp.Close()
			observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
		return fmt.Errorf("flush %s: %w", g.path, err)
	}
	if err := tmp.Close(); err != nil {
		observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
		return fmt.Errorf("replace %s: %w", g.path, err)
	}

	observability.PersistenceWrites.WithLabelValues(g.collection, "ok").Inc()
	return nil
}
