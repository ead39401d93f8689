package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"
)

const fileMode = 0o644

// FileStore keeps the product collection in memory and mirrors it to a
// single JSON file, rewritten in full after every mutation.
type FileStore struct {
	path    string
	log     *zap.Logger
	metrics *StoreMetrics

	mu       sync.RWMutex
	products []Product
	nextID   int64
	saveErr  error
}

// NewFileStore loads the backing file at path. A missing or unreadable file
// yields an empty store; the fault is logged, never returned.
func NewFileStore(path string, log *zap.Logger, metrics *StoreMetrics) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}

	s := &FileStore{
		path:    path,
		log:     log,
		metrics: metrics,
		nextID:  1,
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("product file not found, starting empty", zap.String("path", s.path))
		return
	}
	if err != nil {
		s.loadFailed(err)
		return
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		s.loadFailed(err)
		return
	}

	s.products = products
	for _, p := range products {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	s.metrics.setProducts(len(s.products))

	s.log.Info("products loaded",
		zap.String("path", s.path),
		zap.Int("count", len(s.products)),
		zap.Int64("next_id", s.nextID),
	)
}

func (s *FileStore) loadFailed(err error) {
	s.metrics.persistFailed("load")
	s.log.Error("load products failed, starting empty",
		zap.Error(&PersistError{Op: "load", Path: s.path, Err: err}),
	)
}

// Ping returns the last save fault, if the file is behind memory.
func (s *FileStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveErr
}

func (s *FileStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	return s.products[i], nil
}

func (s *FileStore) Create(_ context.Context, np NewProduct) (Product, error) {
	if err := np.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codeTaken(np.Code, 0) {
		return Product{}, fmt.Errorf("%w: %q", ErrDuplicateCode, np.Code)
	}

	p := np.product(s.nextID)
	s.nextID++
	s.products = append(s.products, p)

	s.persist()
	return p, nil
}

func (s *FileStore) Update(_ context.Context, id int64, patch ProductPatch) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	p, err := patch.merge(s.products[i])
	if err != nil {
		return Product{}, err
	}
	if patch.Code != nil && s.codeTaken(p.Code, id) {
		return Product{}, fmt.Errorf("%w: %q", ErrDuplicateCode, p.Code)
	}

	s.products[i] = p

	s.persist()
	return s.products[i], nil
}

func (s *FileStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.products = slices.Delete(s.products, i, i+1)

	s.persist()
	return nil
}

func (s *FileStore) indexOf(id int64) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}

// codeTaken reports whether a product other than exceptID uses code.
func (s *FileStore) codeTaken(code string, exceptID int64) bool {
	return slices.ContainsFunc(s.products, func(p Product) bool {
		return p.Code == code && p.ID != exceptID
	})
}

// persist must be called with mu held. A failed save leaves memory ahead of
// the file until the next successful save; Ping reports it meanwhile.
func (s *FileStore) persist() {
	s.metrics.setProducts(len(s.products))

	products := s.products
	if products == nil {
		products = []Product{}
	}

	if err := writeJSONFile(s.path, products); err != nil {
		s.saveErr = &PersistError{Op: "save", Path: s.path, Err: err}
		s.metrics.persistFailed("save")
		s.log.Error("save products failed", zap.Error(s.saveErr))
		return
	}
	s.saveErr = nil
}

// writeJSONFile writes v next to path and renames it into place, so readers
// never observe a truncated file.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
