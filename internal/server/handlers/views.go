package handlers

import (
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/inventory"
	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// ItemView is the JSON shape of a stock item. PurchasePrice is only filled in for admins.
type ItemView struct {
	ID            string      `json:"id"`
	ItemName      string      `json:"itemName"`
	SKU           string      `json:"sku,omitempty"`
	Category      string      `json:"category"`
	Type          string      `json:"type"`
	Location      string      `json:"location"`
	Quantity      float64     `json:"quantity"`
	Unit          models.Unit `json:"unit"`
	MinStock      float64     `json:"minStock"`
	PurchasePrice *float64    `json:"purchasePrice,omitempty"`
	SellingPrice  float64     `json:"sellingPrice"`
	GST           float64     `json:"gst"`
	PriceIncGST   float64     `json:"priceIncGst"`
	LowStock      bool        `json:"lowStock"`
	LastUpdated   time.Time   `json:"lastUpdated"`
}

// NewItemView renders item for a caller with or without the admin role.
func NewItemView(item models.StockItem, admin bool) ItemView {
	view := ItemView{
		ID:           item.ID,
		ItemName:     item.ItemName,
		SKU:          item.SKU,
		Category:     item.Category,
		Type:         item.Type,
		Location:     item.Location,
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		MinStock:     item.MinStock,
		SellingPrice: item.SellingPrice,
		GST:          item.GST,
		PriceIncGST:  inventory.PriceIncGST(item.SellingPrice, item.GST),
		LowStock:     inventory.IsLowStock(item),
		LastUpdated:  item.LastUpdated,
	}
	if admin {
		price := item.PurchasePrice
		view.PurchasePrice = &price
	}
	return view
}

func itemViews(items []models.StockItem, admin bool) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, NewItemView(it, admin))
	}
	return views
}

func treeView(items []models.StockItem, byLocation, admin bool) inventory.Tree[ItemView] {
	tree := inventory.Group(items)
	if byLocation {
		tree = inventory.GroupByLocation(items)
	}
	return inventory.MapTree(tree, func(it models.StockItem) ItemView {
		return NewItemView(it, admin)
	})
}
