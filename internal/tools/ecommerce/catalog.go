package ecommerce

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type Offer struct {
	Platform string  `yaml:"platform" json:"platform"`
	Price    float64 `yaml:"price" json:"price"`
	Shipping float64 `yaml:"shipping" json:"shipping"`
}

func (o Offer) Total() float64 {
	return o.Price + o.Shipping
}

type Product struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Rating   float64  `yaml:"rating"`
	Offers   []Offer  `yaml:"offers"`
}

// Cheapest returns the lowest priced offer, optionally limited to platforms.
func (p Product) Cheapest(platforms ...string) (Offer, bool) {
	var (
		best  Offer
		found bool
	)
	for _, o := range p.Offers {
		if len(platforms) > 0 && !slices.Contains(platforms, o.Platform) {
			continue
		}
		if !found || o.Price < best.Price {
			best, found = o, true
		}
	}
	return best, found
}

type Catalog struct {
	Products []Product `yaml:"products"`
}

//go:embed default_catalog.yaml
var defaultCatalog []byte

func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Products))
	for _, p := range c.Products {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog product needs id and name: %+v", p)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate catalog id %q", p.ID)
		}
		if len(p.Offers) == 0 {
			return nil, fmt.Errorf("product %q has no offers", p.ID)
		}
		seen[p.ID] = true
	}
	return &c, nil
}

func (c *Catalog) ByID(id string) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "some": true, "me": true, "my": true,
	"for": true, "of": true, "new": true, "cheap": true, "good": true,
}

func terms(query string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?'\"")
		if w != "" && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// score counts query terms found in the product's name, category or tags.
func (p Product) score(qs []string) int {
	hay := strings.ToLower(p.Name + " " + p.Category + " " + strings.Join(p.Tags, " "))
	n := 0
	for _, q := range qs {
		singular := q
		if len(q) > 3 {
			singular = strings.TrimSuffix(q, "s")
		}
		if strings.Contains(hay, q) || strings.Contains(hay, singular) {
			n++
		}
	}
	return n
}

// Search returns products matching every query term, in catalog order.
func (c *Catalog) Search(query string) []Product {
	qs := terms(query)
	if len(qs) == 0 {
		return nil
	}

	var out []Product
	for _, p := range c.Products {
		if p.score(qs) == len(qs) {
			out = append(out, p)
		}
	}
	return out
}

// Best returns the product matching the most query terms.
func (c *Catalog) Best(query string) (Product, bool) {
	qs := terms(query)
	var (
		best      Product
		bestScore int
	)
	for _, p := range c.Products {
		if s := p.score(qs); s > bestScore {
			best, bestScore = p, s
		}
	}
	return best, bestScore > 0
}
