// Package catalog manages the product catalog: the public listing, slug
// lookups, admin upserts and the default products seeded at startup.
package catalog

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/store"
)

// Collection is the name of the products collection.
const Collection = "products"

// Service reads and edits products.
type Service struct {
	products *store.Collection[Product]
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *store.DB, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		products: store.NewCollection[Product](db, Collection),
		log:      log.Named("catalog"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the public projection of every product in stored order.
func (s *Service) List() ([]Summary, error) {
	products, err := s.products.List()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(products))
	for _, p := range products {
		out = append(out, p.Summary())
	}
	return out, nil
}

// All returns every product document in full.
func (s *Service) All() ([]Product, error) {
	return s.products.List()
}

// Read returns the product stored under slug.
func (s *Service) Read(slug string) (Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Product{}, store.Invalid("Slug manquant")
	}
	p, found, err := s.products.Get(slug)
	if err != nil {
		return Product{}, err
	}
	if !found {
		return Product{}, store.NotFound("Produit introuvable")
	}
	return p, nil
}

// Upsert merges patch into the product it identifies and returns the
// stored result.
func (s *Service) Upsert(patch Patch) (Product, error) {
	slug := patch.Key()
	if slug == "" {
		return Product{}, store.Invalid("Slug ou nom requis")
	}
	p, err := s.products.Upsert(slug, func(current Product, found bool) (Product, error) {
		return Merge(current, slug, patch, s.now())
	})
	if err != nil {
		return Product{}, err
	}
	s.log.Info("product saved", zap.String("slug", slug))
	return p, nil
}

// Stats counts all products and the featured ones.
func (s *Service) Stats() (total, featured int, err error) {
	products, err := s.products.List()
	if err != nil {
		return 0, 0, err
	}
	for _, p := range products {
		if p.Featured.On() {
			featured++
		}
	}
	return len(products), featured, nil
}
