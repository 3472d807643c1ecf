package pos

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenu(t *testing.T) {
	items := Menu()
	require.Len(t, items, 6)

	var names []string
	for _, item := range items {
		names = append(names, item.Name)
		assert.True(t, item.Price.Equal(decimal.NewFromInt(1)))
		assert.NotEmpty(t, item.Emoji)
	}
	assert.Equal(t, []string{"Espresso", "Latte", "Mocha", "Croissant", "Muffin", "Cookie"}, names)

	items[0].Name = "mutated"
	assert.Equal(t, "Espresso", Menu()[0].Name)

	item, ok := FindMenuItem(" latte ")
	require.True(t, ok)
	assert.Equal(t, "Latte", item.Name)

	_, ok = FindMenuItem("Tea")
	assert.False(t, ok)
}

func TestCart_Toggle(t *testing.T) {
	cart := NewCart()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total().IsZero())

	selected, err := cart.Toggle("Mocha")
	require.NoError(t, err)
	assert.True(t, selected)

	selected, err = cart.Toggle("espresso")
	require.NoError(t, err)
	assert.True(t, selected)

	assert.Equal(t, 2, cart.Count())
	assert.True(t, cart.Has("Espresso"))
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(2)))

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Mocha", items[0].Name)
	assert.Equal(t, "Espresso", items[1].Name)
	assert.EqualValues(t, 1, items[0].Quantity)

	selected, err = cart.Toggle("Mocha")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.False(t, cart.Has("Mocha"))
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(1)))

	_, err = cart.Toggle("Tea")
	assert.Equal(t, ErrUnknownItem, err)
	assert.False(t, cart.Has("Tea"))

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.Empty(t, cart.Items())
}

func TestCart_TotalOfEverything(t *testing.T) {
	cart := NewCart()
	for _, item := range Menu() {
		_, err := cart.Toggle(item.Name)
		require.NoError(t, err)
	}
	assert.Equal(t, "6", cart.Total().String())
}
