package catalog

import (
	"path"
	"sort"
	"strings"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/shopspring/decimal"
)

// Product is one catalog entry.
type Product struct {
	ID            string          `json:"id"`
	Page          string          `json:"page"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Image         string          `json:"image"`
}

// Lookup resolves product pages and attributes for the cart.
type Lookup interface {
	ProductIDForPage(page string) (string, bool)
	Attributes(productID string) (*cart.Attributes, bool)
	Product(productID string) (Product, bool)
	List() []Product
}

// Static is an immutable in-memory catalog.
type Static struct {
	byID   map[string]Product
	byPage map[string]string
	order  []string
}

// NewStatic indexes products by id and page. Later duplicates win.
func NewStatic(products []Product) *Static {
	s := &Static{
		byID:   make(map[string]Product, len(products)),
		byPage: make(map[string]string, len(products)),
	}
	for _, p := range products {
		if _, seen := s.byID[p.ID]; !seen {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
		if p.Page != "" {
			s.byPage[p.Page] = p.ID
		}
	}
	return s
}

// Default returns the storefront's six essential tees.
func Default() *Static {
	return NewStatic(defaultProducts())
}

// ProductIDForPage maps a product page path (e.g. "/shop/product3.html") to its id.
func (s *Static) ProductIDForPage(page string) (string, bool) {
	base := path.Base(strings.TrimSpace(page))
	id, ok := s.byPage[base]
	return id, ok
}

// Attributes returns a fresh attribute record for the product.
func (s *Static) Attributes(productID string) (*cart.Attributes, bool) {
	p, ok := s.byID[productID]
	if !ok {
		return nil, false
	}
	return &cart.Attributes{
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
	}, true
}

func (s *Static) Product(productID string) (Product, bool) {
	p, ok := s.byID[productID]
	return p, ok
}

// List returns products ordered by page.
func (s *Static) List() []Product {
	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

func defaultProducts() []Product {
	mk := func(page, id, name string, price, original int64) Product {
		return Product{
			ID:            id,
			Page:          page,
			Name:          name,
			Price:         decimal.NewFromInt(price),
			OriginalPrice: decimal.NewFromInt(original),
			Image:         "/images/products/" + id + ".jpg",
		}
	}
	return []Product{
		mk("product1.html", "heritage-crewneck", "Black Essential Tee", 349, 1799),
		mk("product2.html", "oversized-comfort", "Bottle Green Essential Tee", 349, 1999),
		mk("product3.html", "cropped-minimalist", "Navy Blue Essential Tee", 349, 1599),
		mk("product4.html", "premium-hoodie", "Beige Essential Tee", 349, 2399),
		mk("product5.html", "essential-tee", "Grey Essential Tee", 349, 1299),
		mk("product6.html", "zip-front", "Purple Essential Tee", 349, 2199),
	}
}
