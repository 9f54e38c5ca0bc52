package models

import "time"

// Sentinel labels used when a classification field is left empty.
const (
	DefaultCategory = "Uncategorized"
	DefaultType     = "General"
	DefaultLocation = "Unassigned Location"
)

// DefaultMinStock is applied when an item is created without a low-stock threshold.
const DefaultMinStock = 5.0

// Unit tags the quantity of a stock item.
type Unit string

const (
	UnitCount Unit = "count"
	UnitFeet  Unit = "feet"
	UnitTon   Unit = "ton"
)

// Valid reports whether the unit is one of the supported tags.
func (u Unit) Valid() bool {
	switch u {
	case UnitCount, UnitFeet, UnitTon:
		return true
	}
	return false
}

// StockItem is one inventory line.
type StockItem struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	ItemName      string    `bson:"item_name" json:"itemName"`
	SKU           string    `bson:"sku,omitempty" json:"sku,omitempty"`
	Category      string    `bson:"category" json:"category"`
	Type          string    `bson:"type" json:"type"`
	Location      string    `bson:"location" json:"location"`
	Quantity      float64   `bson:"quantity" json:"quantity"`
	Unit          Unit      `bson:"unit" json:"unit"`
	MinStock      float64   `bson:"min_stock" json:"minStock"`
	PurchasePrice float64   `bson:"purchase_price" json:"purchasePrice"`
	SellingPrice  float64   `bson:"selling_price" json:"sellingPrice"`
	GST           float64   `bson:"gst" json:"gst"`
	LastUpdated   time.Time `bson:"last_updated" json:"lastUpdated"`
}

// CategoryOrDefault returns the category, or DefaultCategory when it is empty.
func (s StockItem) CategoryOrDefault() string {
	return orDefault(s.Category, DefaultCategory)
}

// TypeOrDefault returns the type, or DefaultType when it is empty.
func (s StockItem) TypeOrDefault() string {
	return orDefault(s.Type, DefaultType)
}

// LocationOrDefault returns the location, or DefaultLocation when it is empty.
func (s StockItem) LocationOrDefault() string {
	return orDefault(s.Location, DefaultLocation)
}

// StockPatch carries a partial update; nil fields are left untouched.
type StockPatch struct {
	ItemName      *string  `json:"itemName,omitempty" binding:"omitempty,min=1"`
	SKU           *string  `json:"sku,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Type          *string  `json:"type,omitempty"`
	Location      *string  `json:"location,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty" binding:"omitempty,gte=0"`
	Unit          *Unit    `json:"unit,omitempty" binding:"omitempty,oneof=count feet ton"`
	MinStock      *float64 `json:"minStock,omitempty" binding:"omitempty,gte=0"`
	PurchasePrice *float64 `json:"purchasePrice,omitempty" binding:"omitempty,gte=0"`
	SellingPrice  *float64 `json:"sellingPrice,omitempty" binding:"omitempty,gte=0"`
	GST           *float64 `json:"gst,omitempty" binding:"omitempty,gte=0"`
}

// Empty reports whether the patch changes nothing.
func (p StockPatch) Empty() bool {
	return len(p.Fields()) == 0
}

// OnlyQuantity reports whether quantity is the single field the patch touches.
func (p StockPatch) OnlyQuantity() bool {
	fields := p.Fields()
	return len(fields) == 1 && fields[0] == "quantity"
}

// Fields lists the JSON names of the fields set on the patch.
func (p StockPatch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.ItemName != nil, "itemName")
	add(p.SKU != nil, "sku")
	add(p.Category != nil, "category")
	add(p.Type != nil, "type")
	add(p.Location != nil, "location")
	add(p.Quantity != nil, "quantity")
	add(p.Unit != nil, "unit")
	add(p.MinStock != nil, "minStock")
	add(p.PurchasePrice != nil, "purchasePrice")
	add(p.SellingPrice != nil, "sellingPrice")
	add(p.GST != nil, "gst")
	return fields
}

// Apply returns a copy of item with the patch applied.
func (p StockPatch) Apply(item StockItem) StockItem {
	if p.ItemName != nil {
		item.ItemName = *p.ItemName
	}
	if p.SKU != nil {
		item.SKU = *p.SKU
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.MinStock != nil {
		item.MinStock = *p.MinStock
	}
	if p.PurchasePrice != nil {
		item.PurchasePrice = *p.PurchasePrice
	}
	if p.SellingPrice != nil {
		item.SellingPrice = *p.SellingPrice
	}
	if p.GST != nil {
		item.GST = *p.GST
	}
	return item
}

// ClassificationField names a field that items can be bulk-deleted by.
type ClassificationField string

const (
	FieldCategory ClassificationField = "category"
	FieldType     ClassificationField = "type"
	FieldLocation ClassificationField = "location"
)

// Valid reports whether the field can be used for bulk deletion.
func (f ClassificationField) Valid() bool {
	switch f {
	case FieldCategory, FieldType, FieldLocation:
		return true
	}
	return false
}

func orDefault(value, fallback string) string {
	for _, r := range value {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return value
		}
	}
	return fallback
}
