package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aigov-api/internal/catalog"
)

func TestLoadDefaultSeed(t *testing.T) {
	p, err := catalog.LoadDefault()
	require.NoError(t, err)

	products := p.List()
	require.NotEmpty(t, products)
	require.Equal(t, "1", products[0].ID)
	require.EqualValues(t, 29999, products[0].UnitPrice)

	second, ok := p.Get("2")
	require.True(t, ok)
	require.EqualValues(t, 19999, second.UnitPrice)

	_, ok = p.Get("missing")
	require.False(t, ok)

	require.Equal(t, []string{"services", "toolkits", "training"}, p.Categories())
}

func TestListReturnsCopy(t *testing.T) {
	p, err := catalog.NewStaticProvider([]catalog.Product{{ID: "a", Name: "A", UnitPrice: 100}})
	require.NoError(t, err)
	list := p.List()
	list[0].Name = "mutated"
	got, _ := p.Get("a")
	require.Equal(t, "A", got.Name)
}

func TestLoadRejectsInvalidCatalog(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `products:
  - {id: "1", name: A, price: "1.00"}
  - {id: "1", name: B, price: "2.00"}
`,
		"empty id": `products:
  - {id: "", name: A, price: "1.00"}
`,
		"negative price": `products:
  - {id: "1", name: A, price: "-1.00"}
`,
		"bad price": `products:
  - {id: "1", name: A, price: "one"}
`,
		"signed fraction": `products:
  - {id: "1", name: A, price: "1.-5"}
`,
		"double sign": `products:
  - {id: "1", name: A, price: "--5"}
`,
		"price too large": `products:
  - {id: "1", name: A, price: "100000000.01"}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Load(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}
