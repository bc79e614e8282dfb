package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// MaxPageSize caps the size a caller may ask Page for.
const MaxPageSize = 100

// ProductLister is the read the cache is filled from.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Cache is the in-memory catalog shared by all POS sessions. It is the
// authoritative stock view for cart validation between reloads.
type Cache struct {
	mu       sync.RWMutex
	source   ProductLister
	pageSize int
	products []Product
	index    map[uuid.UUID]int
}

func NewCache(source ProductLister, pageSize int) *Cache {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Cache{
		source:   source,
		pageSize: pageSize,
		index:    make(map[uuid.UUID]int),
	}
}

// Load replaces the cached products. On failure the previous contents stay.
func (c *Cache) Load(ctx context.Context) error {
	products, err := c.source.ListProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cache: failed to load products, keeping previous view")
		return err
	}

	c.mu.Lock()
	c.products = append(make([]Product, 0, len(products)), products...)
	c.reindex()
	c.mu.Unlock()

	log.Debug().Int("products", len(products)).Msg("cache: catalog loaded")
	return nil
}

// Page returns the 1-based page. A page outside the catalog yields no items.
func (c *Cache) Page(page, size int) Page {
	if size <= 0 {
		size = c.pageSize
	}
	size = min(size, MaxPageSize)

	c.mu.RLock()
	defer c.mu.RUnlock()

	total := len(c.products)
	totalPages := (total + size - 1) / size
	result := Page{
		Items:      []Product{},
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}
	if page < 1 || page > totalPages {
		return result
	}

	start := (page - 1) * size
	end := min(start+size, total)
	result.Items = append(result.Items, c.products[start:end]...)
	return result
}

// All returns a copy of every cached product in catalog order.
func (c *Cache) All() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	products := make([]Product, len(c.products))
	copy(products, c.products)
	return products
}

func (c *Cache) Product(id uuid.UUID) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Cache) SetQuantity(id uuid.UUID, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[id]; ok {
		c.products[i].Quantity = qty
	}
}

// Upsert inserts or replaces a product, keeping name order.
func (c *Cache) Upsert(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[p.ID]; ok {
		c.products[i] = p
	} else {
		c.products = append(c.products, p)
	}
	sort.SliceStable(c.products, func(i, j int) bool {
		if c.products[i].Name != c.products[j].Name {
			return c.products[i].Name < c.products[j].Name
		}
		return c.products[i].ID.String() < c.products[j].ID.String()
	})
	c.reindex()
}

func (c *Cache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return
	}
	c.products = append(c.products[:i], c.products[i+1:]...)
	c.reindex()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *Cache) reindex() {
	c.index = make(map[uuid.UUID]int, len(c.products))
	for i, p := range c.products {
		c.index[p.ID] = i
	}
}
