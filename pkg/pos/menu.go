package pos

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MenuItem is something the shop sells.
type MenuItem struct {
	Name  string          `json:"name"`
	Emoji string          `json:"emoji"`
	Price decimal.Decimal `json:"price"`
}

var menu = []MenuItem{
	{Name: "Espresso", Emoji: "☕", Price: decimal.NewFromInt(1)},
	{Name: "Latte", Emoji: "🥛", Price: decimal.NewFromInt(1)},
	{Name: "Mocha", Emoji: "🍫", Price: decimal.NewFromInt(1)},
	{Name: "Croissant", Emoji: "🥐", Price: decimal.NewFromInt(1)},
	{Name: "Muffin", Emoji: "🧁", Price: decimal.NewFromInt(1)},
	{Name: "Cookie", Emoji: "🍪", Price: decimal.NewFromInt(1)},
}

// Menu returns the fixed menu, in display order.
func Menu() []MenuItem {
	res := make([]MenuItem, len(menu))
	copy(res, menu)
	return res
}

// FindMenuItem looks up a menu item by name, ignoring case.
func FindMenuItem(name string) (MenuItem, bool) {
	name = strings.TrimSpace(name)
	for _, item := range menu {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return MenuItem{}, false
}
