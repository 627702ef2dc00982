package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/aigov-api/internal/pricing"
)

//go:embed seed/products.yaml
var seedFS embed.FS

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is an immutable purchasable item.
type Product struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	UnitPrice   pricing.Money `json:"unitPrice"`
	Description string        `json:"description"`
	ImageRef    string        `json:"imageRef"`
	Category    string        `json:"category,omitempty"`
}

// Provider supplies the read-only product catalog.
type Provider interface {
	List() []Product
	Get(id string) (Product, bool)
	Categories() []string
}

// StaticProvider serves a fixed, ordered product list loaded at startup.
type StaticProvider struct {
	products []Product
	byID     map[string]int
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Category    string `yaml:"category"`
}

// MaxUnitPrice bounds catalog prices, in minor units.
const MaxUnitPrice pricing.Money = 100_000_000_00

// NewStaticProvider validates products and builds a provider. Ids must be
// unique and non-empty, prices within 0..MaxUnitPrice.
func NewStaticProvider(products []Product) (*StaticProvider, error) {
	p := &StaticProvider{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, prod := range products {
		prod.ID = strings.TrimSpace(prod.ID)
		if prod.ID == "" {
			return nil, fmt.Errorf("catalog: product %d has empty id", i)
		}
		if _, dup := p.byID[prod.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", prod.ID)
		}
		if prod.UnitPrice < 0 {
			return nil, fmt.Errorf("catalog: product %q has negative price", prod.ID)
		}
		if prod.UnitPrice > MaxUnitPrice {
			return nil, fmt.Errorf("catalog: product %q price exceeds %s", prod.ID, pricing.Format(MaxUnitPrice))
		}
		p.byID[prod.ID] = len(p.products)
		p.products = append(p.products, prod)
	}
	return p, nil
}

// LoadDefault loads the embedded seed catalog.
func LoadDefault() (*StaticProvider, error) {
	f, err := seedFS.Open("seed/products.yaml")
	if err != nil {
		return nil, fmt.Errorf("catalog: open seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*StaticProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog document.
func Load(r io.Reader) (*StaticProvider, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	products := make([]Product, 0, len(doc.Products))
	for _, sp := range doc.Products {
		price, err := pricing.Parse(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %q: %w", sp.ID, err)
		}
		products = append(products, Product{
			ID:          sp.ID,
			Name:        strings.TrimSpace(sp.Name),
			UnitPrice:   price,
			Description: strings.TrimSpace(sp.Description),
			ImageRef:    strings.TrimSpace(sp.Image),
			Category:    strings.TrimSpace(sp.Category),
		})
	}
	return NewStaticProvider(products)
}

// List returns a copy of the products in catalog order.
func (p *StaticProvider) List() []Product {
	out := make([]Product, len(p.products))
	copy(out, p.products)
	return out
}

// Get returns the product with the given id.
func (p *StaticProvider) Get(id string) (Product, bool) {
	idx, ok := p.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, false
	}
	return p.products[idx], true
}

// Categories returns the distinct non-empty categories sorted by name.
func (p *StaticProvider) Categories() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, prod := range p.products {
		if prod.Category == "" {
			continue
		}
		if _, ok := seen[prod.Category]; ok {
			continue
		}
		seen[prod.Category] = struct{}{}
		out = append(out, prod.Category)
	}
	sort.Strings(out)
	return out
}
