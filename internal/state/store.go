package state

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const RUNS_DIR = "/var/lib/ovsnett/runs"

// Store keeps one JSON file per run in a directory
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = RUNS_DIR
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// newRunID returns 12 random hex characters, short enough to type after
// "ovsnett cleanup".
func newRunID() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Save writes a record, assigning it an ID first if it has none
func (s *Store) Save(rec *Record) error {
	if rec.ID == "" {
		id, err := newRunID()
		if err != nil {
			return fmt.Errorf("generate run id: %w", err)
		}
		rec.ID = id
	}

	now := time.Now().Format(time.RFC3339)
	if rec.CreatedAt == "" {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated record
	tmp := s.path(rec.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmp, s.path(rec.ID)); err != nil {
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) FindByID(id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}

	return &rec, nil
}

// List returns every readable record, oldest first
func (s *Store) List() ([]*Record, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}

		rec, err := s.FindByID(strings.TrimSuffix(file.Name(), ".json"))
		if err == nil {
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt < records[j].CreatedAt
	})
	return records, nil
}

// Delete removes a record. A missing record is not an error.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}
