package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogPages(t *testing.T) {
	c := Default()

	id, ok := c.ProductIDForPage("/shop/product5.html")
	require.True(t, ok)
	assert.Equal(t, "essential-tee", id)

	_, ok = c.ProductIDForPage("/index.html")
	assert.False(t, ok)

	products := c.List()
	require.Len(t, products, 6)
	assert.Equal(t, "heritage-crewneck", products[0].ID)
	assert.Equal(t, "zip-front", products[5].ID)
}

func TestAttributesAreCopies(t *testing.T) {
	c := Default()

	attrs, ok := c.Attributes("premium-hoodie")
	require.True(t, ok)
	assert.Equal(t, "Beige Essential Tee", attrs.Name)
	assert.True(t, attrs.Price.Equal(decimal.NewFromInt(349)))
	assert.True(t, attrs.OriginalPrice.Equal(decimal.NewFromInt(2399)))

	attrs.Name = "mutated"
	again, _ := c.Attributes("premium-hoodie")
	assert.Equal(t, "Beige Essential Tee", again.Name)

	_, ok = c.Attributes("unknown")
	assert.False(t, ok)
}
