package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chessperf/internal/forest"
	"github.com/hailam/chessperf/internal/metrics"
)

// ErrModelNotFound is returned when no model is stored under a name.
var ErrModelNotFound = errors.New("storage: model not found")

// Storage keys
const (
	keyLatest      = "latest"
	prefixModel    = "model/"
	suffixArtifact = "/artifact"
	infixRun       = "/run/"
)

func artifactKey(name string) []byte { return []byte(prefixModel + name + suffixArtifact) }

func runPrefix(name string) []byte { return []byte(prefixModel + name + infixRun) }

func runKey(name string, at time.Time) []byte {
	// Zero-padded so keys sort by time.
	return []byte(fmt.Sprintf("%s%s%s%020d", prefixModel, name, infixRun, at.UnixNano()))
}

// TrainingRun records one fit of a model.
type TrainingRun struct {
	Model     string             `json:"model"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
	Dataset   string             `json:"dataset"`
	Filter    string             `json:"filter,omitempty"`
	TrainRows int                `json:"train_rows"`
	TestRows  int                `json:"test_rows"`
	Config    forest.Config      `json:"config"`
	Train     metrics.Regression `json:"train"`
	Test      metrics.Regression `json:"test"`
}

// Storage wraps BadgerDB as a model registry.
type Storage struct {
	db *badger.DB
}

// NewStorage opens the registry in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens the registry stored in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", dir, err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func validName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("storage: invalid model name %q", name)
	}
	return nil
}

// SaveModel stores the artifact under name, appends run to its history and
// marks name as the latest model.
func (s *Storage) SaveModel(name string, a *forest.Artifact, run TrainingRun) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := a.Marshal()
	if err != nil {
		return err
	}
	run.Model = name
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	runData, err := json.Marshal(run)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(artifactKey(name), data); err != nil {
			return err
		}
		if err := txn.Set(runKey(name, run.StartedAt), runData); err != nil {
			return err
		}
		return txn.Set([]byte(keyLatest), []byte(name))
	})
}

// LoadModel returns the artifact stored under name.
func (s *Storage) LoadModel(name string) (*forest.Artifact, error) {
	var a *forest.Artifact

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(name))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %q", ErrModelNotFound, name)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			a, err = forest.Unmarshal(val)
			return err
		})
	})

	return a, err
}

// LatestModel returns the most recently saved model.
func (s *Storage) LatestModel() (string, *forest.Artifact, error) {
	var name string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyLatest))
		if err == badger.ErrKeyNotFound {
			return ErrModelNotFound
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		name = string(val)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	a, err := s.LoadModel(name)
	return name, a, err
}

// Runs returns the training history of name, oldest first.
func (s *Storage) Runs(name string) ([]TrainingRun, error) {
	var runs []TrainingRun

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := runPrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var run TrainingRun
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			})
			if err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	})

	return runs, err
}

// Models lists the stored model names in order.
func (s *Storage) Models() ([]string, error) {
	var names []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixModel)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if !strings.HasSuffix(key, suffixArtifact) {
				continue
			}
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(key, prefixModel), suffixArtifact))
		}
		return nil
	})
	sort.Strings(names)

	return names, err
}

// DeleteModel removes a model and its history.
func (s *Storage) DeleteModel(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(artifactKey(name)); err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %q", ErrModelNotFound, name)
		} else if err != nil {
			return err
		}

		var keys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		prefix := runPrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		keys = append(keys, artifactKey(name))
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		item, err := txn.Get([]byte(keyLatest))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		latest, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if string(latest) == name {
			return txn.Delete([]byte(keyLatest))
		}
		return nil
	})
}
