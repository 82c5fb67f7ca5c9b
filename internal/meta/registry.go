// Package meta serves DocType metadata: cached lookups, the value-field
// filter, and syncing definitions from files into the database.
package meta

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zulandar/studio/internal/models"
	"gorm.io/gorm"
)

// DefaultCacheSize is used when NewRegistry is given a non-positive size.
const DefaultCacheSize = 256

// ErrDocTypeNotFound is returned when a DocType does not exist.
var ErrDocTypeNotFound = errors.New("doctype not found")

// Meta is the loaded schema of one DocType. Values handed out by a Registry
// are shared and must not be modified.
type Meta struct {
	Name    string
	Module  string
	IsTable bool
	Fields  []models.DocField
}

// Getter looks up DocType metadata by name.
type Getter interface {
	GetMeta(ctx context.Context, doctype string) (*Meta, error)
}

// Registry loads DocType metadata from the database and caches it.
type Registry struct {
	db    *gorm.DB
	cache *lru.Cache[string, *Meta]

	// gen is bumped by every invalidation. A lookup only caches its result
	// if gen is unchanged since it started reading.
	mu  sync.Mutex
	gen uint64
}

// NewRegistry returns a Registry backed by db holding up to size entries.
func NewRegistry(db *gorm.DB, size int) (*Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("meta: db is required")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Meta](size)
	if err != nil {
		return nil, fmt.Errorf("meta: create cache: %w", err)
	}
	return &Registry{db: db, cache: cache}, nil
}

// GetMeta returns the metadata for doctype, with fields ordered by idx.
func (r *Registry) GetMeta(ctx context.Context, doctype string) (*Meta, error) {
	if m, ok := r.cache.Get(doctype); ok {
		return m, nil
	}
	gen := r.generation()

	var dt models.DocType
	err := r.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("name = ?", doctype).
		First(&dt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("meta: %s: %w", doctype, ErrDocTypeNotFound)
		}
		return nil, fmt.Errorf("meta: get %s: %w", doctype, err)
	}

	m := &Meta{
		Name:    dt.Name,
		Module:  dt.Module,
		IsTable: dt.IsTable,
		Fields:  dt.Fields,
	}
	if m.Fields == nil {
		m.Fields = []models.DocField{}
	}
	r.mu.Lock()
	if r.gen == gen {
		r.cache.Add(doctype, m)
	}
	r.mu.Unlock()
	return m, nil
}

func (r *Registry) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// ClearCache drops the cached metadata for doctype.
func (r *Registry) ClearCache(doctype string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.cache.Remove(doctype)
}

// ClearAll drops every cached entry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.cache.Purge()
}

// Cached reports how many DocTypes are currently cached.
func (r *Registry) Cached() int {
	return r.cache.Len()
}

// List returns the names of all stored DocTypes, sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&models.DocType{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("meta: list doctypes: %w", err)
	}
	return names, nil
}
