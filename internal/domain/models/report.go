package models

import "time"

// InventoryReport represents the aggregated inventory state stored in MongoDB.
type InventoryReport struct {
	GeneratedAt    time.Time         `bson:"generated_at" json:"generatedAt"`
	TotalItems     int               `bson:"total_items" json:"totalItems"`
	QuantityByUnit map[Unit]float64  `bson:"quantity_by_unit" json:"quantityByUnit"`
	LowStock       []LowStockEntry   `bson:"low_stock" json:"lowStock"`
	CostValue      float64           `bson:"cost_value" json:"costValue"`
	RetailValue    float64           `bson:"retail_value" json:"retailValue"`
	Categories     []CategorySummary `bson:"categories" json:"categories"`
}

// LowStockEntry is one item at or below its minimum stock.
type LowStockEntry struct {
	ItemID   string  `bson:"item_id" json:"itemId"`
	ItemName string  `bson:"item_name" json:"itemName"`
	Category string  `bson:"category" json:"category"`
	Type     string  `bson:"type" json:"type"`
	Location string  `bson:"location" json:"location"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Unit     Unit    `bson:"unit" json:"unit"`
	MinStock float64 `bson:"min_stock" json:"minStock"`
}

// CategorySummary totals one category.
type CategorySummary struct {
	Name        string  `bson:"name" json:"name"`
	Items       int     `bson:"items" json:"items"`
	LowStock    int     `bson:"low_stock" json:"lowStock"`
	CostValue   float64 `bson:"cost_value" json:"costValue"`
	RetailValue float64 `bson:"retail_value" json:"retailValue"`
}
