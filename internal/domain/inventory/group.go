// Package inventory holds the pure aggregation and pricing logic behind the stock views.
// Nothing here performs I/O or keeps state, so every function is safe for concurrent use.
package inventory

import "github.com/mamadbah2/stockroom/internal/domain/models"

// Tree is the grouped inventory: categories in first-appearance order, each holding its types
// in first-appearance order. Leaves keep the relative input order of their items.
type Tree[T any] []Category[T]

// Category is one top-level bucket.
type Category[T any] struct {
	Name  string    `json:"name"`
	Types []Type[T] `json:"types"`
}

// Type is a bucket within a category. Items is used by the two-level grouping and Locations by
// the three-level one; exactly one of them is populated.
type Type[T any] struct {
	Name      string        `json:"name"`
	Items     []T           `json:"items,omitempty"`
	Locations []Location[T] `json:"locations,omitempty"`
}

// Location is a bucket within a type for the three-level grouping.
type Location[T any] struct {
	Name  string `json:"name"`
	Items []T    `json:"items"`
}

// Group partitions items by category then type.
func Group(items []models.StockItem) Tree[models.StockItem] {
	return group(items, false)
}

// GroupByLocation partitions items by category, type, then location.
func GroupByLocation(items []models.StockItem) Tree[models.StockItem] {
	return group(items, true)
}

type typeKey struct {
	category string
	typ      string
}

type locationKey struct {
	typeKey
	location string
}

func group(items []models.StockItem, byLocation bool) Tree[models.StockItem] {
	tree := Tree[models.StockItem]{}
	categories := make(map[string]int)
	types := make(map[typeKey]int)
	locations := make(map[locationKey]int)

	for _, item := range items {
		cat := item.CategoryOrDefault()
		ci, ok := categories[cat]
		if !ok {
			ci = len(tree)
			categories[cat] = ci
			tree = append(tree, Category[models.StockItem]{Name: cat})
		}

		tk := typeKey{category: cat, typ: item.TypeOrDefault()}
		ti, ok := types[tk]
		if !ok {
			ti = len(tree[ci].Types)
			types[tk] = ti
			tree[ci].Types = append(tree[ci].Types, Type[models.StockItem]{Name: tk.typ})
		}
		leaf := &tree[ci].Types[ti]

		if !byLocation {
			leaf.Items = append(leaf.Items, item)
			continue
		}

		lk := locationKey{typeKey: tk, location: item.LocationOrDefault()}
		li, ok := locations[lk]
		if !ok {
			li = len(leaf.Locations)
			locations[lk] = li
			leaf.Locations = append(leaf.Locations, Location[models.StockItem]{Name: lk.location})
		}
		leaf.Locations[li].Items = append(leaf.Locations[li].Items, item)
	}

	return tree
}

// Flatten concatenates every leaf depth-first. Regrouping the result yields the same tree.
func Flatten[T any](tree Tree[T]) []T {
	out := make([]T, 0, tree.Count())
	for _, cat := range tree {
		for _, typ := range cat.Types {
			out = append(out, typ.Items...)
			for _, loc := range typ.Locations {
				out = append(out, loc.Items...)
			}
		}
	}
	return out
}

// Count returns the number of leaf items in the tree.
func (t Tree[T]) Count() int {
	var n int
	for _, cat := range t {
		n += cat.Count()
	}
	return n
}

// Count returns the number of items in the category.
func (c Category[T]) Count() int {
	var n int
	for _, typ := range c.Types {
		n += len(typ.Items)
		for _, loc := range typ.Locations {
			n += len(loc.Items)
		}
	}
	return n
}

// Lookup returns the leaf items stored under category and type, including every location.
func (t Tree[T]) Lookup(category, typ string) []T {
	for _, cat := range t {
		if cat.Name != category {
			continue
		}
		for _, tp := range cat.Types {
			if tp.Name != typ {
				continue
			}
			if len(tp.Locations) == 0 {
				return tp.Items
			}
			var out []T
			for _, loc := range tp.Locations {
				out = append(out, loc.Items...)
			}
			return out
		}
	}
	return nil
}

// AsMap returns the two-level map view of the tree. Location buckets are merged into their type.
func (t Tree[T]) AsMap() map[string]map[string][]T {
	out := make(map[string]map[string][]T, len(t))
	for _, cat := range t {
		types := make(map[string][]T, len(cat.Types))
		for _, typ := range cat.Types {
			types[typ.Name] = t.Lookup(cat.Name, typ.Name)
		}
		out[cat.Name] = types
	}
	return out
}

// MapTree projects every leaf item while keeping the tree shape and order.
func MapTree[T, U any](tree Tree[T], fn func(T) U) Tree[U] {
	out := make(Tree[U], len(tree))
	for i, cat := range tree {
		out[i] = Category[U]{Name: cat.Name, Types: make([]Type[U], len(cat.Types))}
		for j, typ := range cat.Types {
			mapped := Type[U]{Name: typ.Name, Items: mapSlice(typ.Items, fn)}
			if len(typ.Locations) > 0 {
				mapped.Locations = make([]Location[U], len(typ.Locations))
				for k, loc := range typ.Locations {
					mapped.Locations[k] = Location[U]{Name: loc.Name, Items: mapSlice(loc.Items, fn)}
				}
			}
			out[i].Types[j] = mapped
		}
	}
	return out
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	if in == nil {
		return nil
	}
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
