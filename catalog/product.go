package catalog

import (
	"encoding/json"
	"strings"

	"github.com/stevemurr/vitrine/store"
)

// PlaceholderImage is shown for products that carry no image.
const PlaceholderImage = "https://picsum.photos/id/3/900/700"

const (
	defaultLink = "#"
	defaultCTA  = "Voir"
)

// Product is a catalog entry keyed by Slug.
type Product struct {
	Slug      string                     `json:"slug"`
	Name      string                     `json:"name"`
	Short     string                     `json:"short"`
	Type      List                       `json:"type"`
	Deploy    List                       `json:"deploy"`
	Pricing   List                       `json:"pricing"`
	Featured  Flag                       `json:"featured"`
	IsNew     Flag                       `json:"isNew"`
	Image     string                     `json:"image,omitempty"`
	Images    map[string]json.RawMessage `json:"images,omitempty"`
	Tags      List                       `json:"tags"`
	Link      string                     `json:"link"`
	CTA       string                     `json:"cta"`
	UpdatedAt string                     `json:"updatedAt,omitempty"`

	// Extra holds the fields this package does not interpret (hero copy,
	// FAQ, feature lists) so they survive a rewrite untouched.
	Extra store.Extra `json:"-"`
}

// productFields has Product's layout without its JSON methods.
type productFields Product

var knownFields = []string{
	"slug", "name", "short", "type", "deploy", "pricing", "featured", "isNew",
	"image", "images", "tags", "link", "cta", "updatedAt",
}

func (p Product) MarshalJSON() ([]byte, error) {
	p.Type = p.Type.orEmpty()
	p.Deploy = p.Deploy.orEmpty()
	p.Pricing = p.Pricing.orEmpty()
	p.Tags = p.Tags.orEmpty()
	return store.MarshalWithExtra(productFields(p), p.Extra)
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var fields productFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	extra, err := store.SplitExtra(b, knownFields)
	if err != nil {
		return err
	}
	*p = Product(fields)
	p.Extra = extra
	return nil
}

// Summary is the public listing projection of a Product.
type Summary struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Short    string `json:"short"`
	Type     List   `json:"type"`
	Deploy   List   `json:"deploy"`
	Pricing  List   `json:"pricing"`
	Featured Flag   `json:"featured"`
	IsNew    Flag   `json:"isNew"`
	Image    string `json:"image"`
	Tags     List   `json:"tags"`
	Link     string `json:"link"`
	CTA      string `json:"cta"`
}

// Summary projects p for the public catalog, filling display defaults.
func (p Product) Summary() Summary {
	return Summary{
		Slug:     p.Slug,
		Name:     p.Name,
		Short:    p.Short,
		Type:     p.Type.orEmpty(),
		Deploy:   p.Deploy.orEmpty(),
		Pricing:  p.Pricing.orEmpty(),
		Featured: p.Featured,
		IsNew:    p.IsNew,
		Image:    firstNonEmpty(p.ImageURL("hero"), p.Image, PlaceholderImage),
		Tags:     p.Tags.orEmpty(),
		Link:     firstNonEmpty(p.Link, defaultLink),
		CTA:      firstNonEmpty(p.CTA, defaultCTA),
	}
}

// ImageURL returns the image stored under name in Images, or "" when it is
// missing or not a string (galleries are lists).
func (p Product) ImageURL(name string) string {
	var url string
	if raw, ok := p.Images[name]; ok {
		_ = json.Unmarshal(raw, &url)
	}
	return url
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
