package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/store"
)

//go:embed defaults.json
var defaultsJSON []byte

const (
	restaurantSlug = "salepro-restaurant"
	restaurantLink = "/salepro/restaurant"
	restaurantCTA  = "Voir la page"
	comingSoonCTA  = "Bientot disponible"
)

// Defaults returns the products seeded into an empty catalog.
func Defaults() ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(defaultsJSON, &products); err != nil {
		return nil, fmt.Errorf("decode default products: %w", err)
	}
	return products, nil
}

// Seed inserts each default product whose slug is absent and leaves the
// others alone. The restaurant product is the one exception: its link is
// always reset and a missing or "coming soon" call to action is upgraded.
func (s *Service) Seed() error {
	defaults, err := Defaults()
	if err != nil {
		return err
	}
	err = s.products.Update(func(docs *store.Documents[Product]) error {
		for _, p := range defaults {
			if _, ok := docs.Get(p.Slug); ok {
				continue
			}
			docs.Set(p.Slug, p)
			s.log.Info("seeded product", zap.String("slug", p.Slug))
		}
		if p, ok := docs.Get(restaurantSlug); ok {
			p.Link = restaurantLink
			if cta := strings.TrimSpace(p.CTA); cta == "" || cta == comingSoonCTA {
				p.CTA = restaurantCTA
			}
			docs.Set(restaurantSlug, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	return nil
}
