package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/inventory"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	repo "github.com/mamadbah2/stockroom/internal/repository/sheets"
)

const (
	timestampLayout = "2006-01-02 15:04"
	inventorySheet  = "Inventory"
	reportsRange    = "Reports!A:F"
)

// ErrSheetsDisabled is returned by Export when no spreadsheet is configured.
var ErrSheetsDisabled = errors.New("google sheets export is not configured")

var inventoryHeader = []interface{}{
	"Item", "SKU", "Category", "Type", "Location", "Quantity", "Unit", "Min Stock",
	"Purchase Price", "Selling Price", "GST %", "Price Inc GST", "Low Stock", "Last Updated",
}

// ItemLister loads the full inventory.
type ItemLister interface {
	ListItems(ctx context.Context) ([]models.StockItem, error)
}

// Store persists generated reports.
type Store interface {
	SaveReport(ctx context.Context, report models.InventoryReport) error
	LatestReport(ctx context.Context) (models.InventoryReport, error)
}

// Service builds inventory reports and pushes them to storage and Sheets.
type Service struct {
	items  ItemLister
	store  Store
	sheets repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. sheets may be nil.
func NewService(items ItemLister, store Store, sheets repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{items: items, store: store, sheets: sheets, logger: logger, now: time.Now}
}

// Generate computes a report over the current inventory.
func (s *Service) Generate(ctx context.Context) (models.InventoryReport, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return models.InventoryReport{}, fmt.Errorf("load inventory: %w", err)
	}
	return Build(items, s.now().UTC()), nil
}

// Save stores the report.
func (s *Service) Save(ctx context.Context, report models.InventoryReport) error {
	if err := s.store.SaveReport(ctx, report); err != nil {
		return err
	}
	s.logger.Info("inventory report saved",
		zap.Time("generated_at", report.GeneratedAt),
		zap.Int("items", report.TotalItems),
		zap.Int("low_stock", len(report.LowStock)),
	)
	return nil
}

// Latest returns the last saved report.
func (s *Service) Latest(ctx context.Context) (models.InventoryReport, error) {
	return s.store.LatestReport(ctx)
}

// Export rewrites the Inventory sheet and appends one summary row to the Reports sheet.
func (s *Service) Export(ctx context.Context) error {
	if s.sheets == nil {
		return ErrSheetsDisabled
	}

	items, err := s.items.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	rows := make([][]interface{}, 0, len(items)+1)
	rows = append(rows, inventoryHeader)
	for _, it := range items {
		rows = append(rows, inventoryRow(it))
	}
	if err := s.sheets.ReplaceSheet(ctx, inventorySheet, rows); err != nil {
		return fmt.Errorf("export inventory: %w", err)
	}

	report := Build(items, s.now().UTC())
	summary := []interface{}{
		report.GeneratedAt.Format(timestampLayout),
		report.TotalItems,
		len(report.LowStock),
		report.CostValue,
		report.RetailValue,
		len(report.Categories),
	}
	if err := s.sheets.AppendRow(ctx, reportsRange, summary); err != nil {
		return fmt.Errorf("append report summary: %w", err)
	}

	s.logger.Info("inventory exported to sheets", zap.Int("rows", len(items)))
	return nil
}

// Build aggregates items into a report stamped with at.
func Build(items []models.StockItem, at time.Time) models.InventoryReport {
	report := models.InventoryReport{
		GeneratedAt:    at,
		TotalItems:     len(items),
		QuantityByUnit: make(map[models.Unit]float64),
		LowStock:       []models.LowStockEntry{},
		Categories:     []models.CategorySummary{},
	}

	for _, it := range items {
		unit := it.Unit
		if unit == "" {
			unit = models.UnitCount
		}
		report.QuantityByUnit[unit] += it.Quantity
		report.CostValue += it.Quantity * it.PurchasePrice
		report.RetailValue += it.Quantity * inventory.PriceIncGST(it.SellingPrice, it.GST)
	}

	for _, it := range inventory.LowStock(items) {
		report.LowStock = append(report.LowStock, models.LowStockEntry{
			ItemID:   it.ID,
			ItemName: it.ItemName,
			Category: it.CategoryOrDefault(),
			Type:     it.TypeOrDefault(),
			Location: it.LocationOrDefault(),
			Quantity: it.Quantity,
			Unit:     it.Unit,
			MinStock: it.MinStock,
		})
	}

	for _, cat := range inventory.Group(items) {
		summary := models.CategorySummary{Name: cat.Name}
		for _, it := range inventory.Flatten(inventory.Tree[models.StockItem]{cat}) {
			summary.Items++
			if inventory.IsLowStock(it) {
				summary.LowStock++
			}
			summary.CostValue += it.Quantity * it.PurchasePrice
			summary.RetailValue += it.Quantity * inventory.PriceIncGST(it.SellingPrice, it.GST)
		}
		summary.CostValue = roundCents(summary.CostValue)
		summary.RetailValue = roundCents(summary.RetailValue)
		report.Categories = append(report.Categories, summary)
	}

	report.CostValue = roundCents(report.CostValue)
	report.RetailValue = roundCents(report.RetailValue)
	return report
}

// LowStockAlert renders the low stock section of a report as a chat message. It is empty when nothing is low.
func LowStockAlert(report models.InventoryReport) string {
	if len(report.LowStock) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Low stock alert (%s): %d item(s) at or below minimum.", report.GeneratedAt.Format(timestampLayout), len(report.LowStock))
	for _, e := range report.LowStock {
		unit := e.Unit
		if unit == "" {
			unit = models.UnitCount
		}
		fmt.Fprintf(&b, "\n- %s (%s / %s @ %s): %g %s, min %g", e.ItemName, e.Category, e.Type, e.Location, e.Quantity, unit, e.MinStock)
	}
	return b.String()
}

func inventoryRow(it models.StockItem) []interface{} {
	lastUpdated := ""
	if !it.LastUpdated.IsZero() {
		lastUpdated = it.LastUpdated.UTC().Format(timestampLayout)
	}
	lowStock := "no"
	if inventory.IsLowStock(it) {
		lowStock = "yes"
	}
	return []interface{}{
		it.ItemName,
		it.SKU,
		it.CategoryOrDefault(),
		it.TypeOrDefault(),
		it.LocationOrDefault(),
		it.Quantity,
		string(it.Unit),
		it.MinStock,
		it.PurchasePrice,
		it.SellingPrice,
		it.GST,
		roundCents(inventory.PriceIncGST(it.SellingPrice, it.GST)),
		lowStock,
		lastUpdated,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
