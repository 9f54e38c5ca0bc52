package inventory

import (
	"sort"
	"strings"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// IsLowStock reports whether the item is at or below its minimum stock.
func IsLowStock(item models.StockItem) bool {
	return item.Quantity <= item.MinStock
}

// LowStock keeps the low-stock items in input order.
func LowStock(items []models.StockItem) []models.StockItem {
	return filter(items, IsLowStock)
}

// Search keeps items whose name, SKU, category, type or location contains term, ignoring case.
// An empty term matches everything.
func Search(items []models.StockItem, term string) []models.StockItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	return filter(items, func(item models.StockItem) bool {
		for _, field := range []string{item.ItemName, item.SKU, item.Category, item.Type, item.Location} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	})
}

// FormatMasterData trims s and capitalises the first letter of each word.
func FormatMasterData(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	atWordStart := true
	for _, r := range s {
		if atWordStart && isWordRune(r) {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
		atWordStart = !isWordRune(r)
	}
	return b.String()
}

// Categories lists the distinct non-empty categories, sorted.
func Categories(items []models.StockItem) []string {
	return distinct(items, func(item models.StockItem) (string, bool) {
		return item.Category, true
	})
}

// Types lists the distinct non-empty types used within category, sorted.
func Types(items []models.StockItem, category string) []string {
	return distinct(items, func(item models.StockItem) (string, bool) {
		return item.Type, item.Category == category
	})
}

// Locations lists the distinct non-empty locations, sorted.
func Locations(items []models.StockItem) []string {
	return distinct(items, func(item models.StockItem) (string, bool) {
		return item.Location, true
	})
}

func distinct(items []models.StockItem, pick func(models.StockItem) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, item := range items {
		value, ok := pick(item)
		if !ok || value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

func filter(items []models.StockItem, keep func(models.StockItem) bool) []models.StockItem {
	out := []models.StockItem{}
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
