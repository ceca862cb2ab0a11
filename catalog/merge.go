package catalog

import (
	"strings"
	"time"

	"github.com/stevemurr/vitrine/store"
)

// Patch is an admin edit of a product. Absent or blank fields keep the
// stored value, except the flags, which are taken from the patch as-is.
type Patch struct {
	Slug     Text `json:"slug"`
	Name     Text `json:"name"`
	Short    Text `json:"short"`
	Image    Text `json:"image"`
	Link     Text `json:"link"`
	CTA      Text `json:"cta"`
	Type     List `json:"type"`
	Deploy   List `json:"deploy"`
	Pricing  List `json:"pricing"`
	Tags     List `json:"tags"`
	Featured Flag `json:"featured"`
	IsNew    Flag `json:"isNew"`
}

// Key returns the slug a patch is stored under: the explicit slug when
// given, otherwise one derived from the name.
func (p Patch) Key() string {
	if s := p.Slug.Trimmed(); s != "" {
		return Slugify(s)
	}
	return Slugify(p.Name.Trimmed())
}

// Merge applies patch to current and stamps updatedAt with now.
//
// Omitting featured or isNew turns them off; this mirrors how the admin
// form submits unchecked boxes.
func Merge(current Product, slug string, patch Patch, now time.Time) (Product, error) {
	next := current
	next.Slug = slug
	next.Name = pick(patch.Name, current.Name, "")
	next.Short = pick(patch.Short, current.Short, "")
	next.Image = pick(patch.Image, current.Image, "")
	next.Link = pick(patch.Link, current.Link, defaultLink)
	next.CTA = pick(patch.CTA, current.CTA, defaultCTA)
	next.Type = pickList(patch.Type, current.Type)
	next.Deploy = pickList(patch.Deploy, current.Deploy)
	next.Pricing = pickList(patch.Pricing, current.Pricing)
	next.Tags = pickList(patch.Tags, current.Tags)
	next.Featured = patch.Featured
	next.IsNew = patch.IsNew
	next.UpdatedAt = store.Timestamp(now)

	if next.Name == "" {
		return Product{}, store.Invalid("Nom du produit requis")
	}
	return next, nil
}

func pick(in Text, current, fallback string) string {
	if s := in.Trimmed(); s != "" {
		return s
	}
	if s := strings.TrimSpace(current); s != "" {
		return s
	}
	return fallback
}

func pickList(in, current List) List {
	if in != nil {
		return in
	}
	out := List{}
	for _, s := range current {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
