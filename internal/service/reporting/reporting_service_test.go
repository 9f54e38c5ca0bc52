package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

type staticItems []models.StockItem

func (s staticItems) ListItems(context.Context) ([]models.StockItem, error) {
	return s, nil
}

type memoryStore struct {
	saved []models.InventoryReport
}

func (m *memoryStore) SaveReport(_ context.Context, r models.InventoryReport) error {
	m.saved = append(m.saved, r)
	return nil
}

func (m *memoryStore) LatestReport(context.Context) (models.InventoryReport, error) {
	return m.saved[len(m.saved)-1], nil
}

type recordingSheets struct {
	replaced map[string][][]interface{}
	appended map[string][][]interface{}
}

func newRecordingSheets() *recordingSheets {
	return &recordingSheets{replaced: map[string][][]interface{}{}, appended: map[string][][]interface{}{}}
}

func (r *recordingSheets) AppendRow(_ context.Context, sheetRange string, values []interface{}) error {
	r.appended[sheetRange] = append(r.appended[sheetRange], values)
	return nil
}

func (r *recordingSheets) ReplaceSheet(_ context.Context, sheet string, rows [][]interface{}) error {
	r.replaced[sheet] = rows
	return nil
}

var (
	reportTime = time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	sample     = staticItems{
		{ID: "1", ItemName: "Clear 12mm", Category: "Glass", Type: "Tempered", Quantity: 3, Unit: models.UnitCount, MinStock: 5, PurchasePrice: 50, SellingPrice: 100, GST: 18},
		{ID: "2", ItemName: "Frosted 8mm", Category: "Glass", Type: "Frosted", Quantity: 20, Unit: models.UnitCount, MinStock: 5, PurchasePrice: 10, SellingPrice: 20, GST: 0},
		{ID: "3", ItemName: "Oak trim", Category: "Frames", Quantity: 12.5, Unit: models.UnitFeet, MinStock: 2, PurchasePrice: 2, SellingPrice: 4, GST: 10},
		{ID: "4", ItemName: "Loose screws", Quantity: 0},
	}
)

func TestBuild(t *testing.T) {
	report := Build(sample, reportTime)

	assert.Equal(t, reportTime, report.GeneratedAt)
	assert.Equal(t, 4, report.TotalItems)
	assert.Equal(t, 23.0, report.QuantityByUnit[models.UnitCount])
	assert.Equal(t, 12.5, report.QuantityByUnit[models.UnitFeet])

	// 3*50 + 20*10 + 12.5*2
	assert.Equal(t, 375.0, report.CostValue)
	// 3*118 + 20*20 + 12.5*4.4
	assert.Equal(t, 809.0, report.RetailValue)

	require.Len(t, report.LowStock, 2)
	assert.Equal(t, "Clear 12mm", report.LowStock[0].ItemName)
	assert.Equal(t, models.DefaultCategory, report.LowStock[1].Category)
	assert.Equal(t, models.DefaultLocation, report.LowStock[1].Location)

	require.Len(t, report.Categories, 3)
	assert.Equal(t, "Glass", report.Categories[0].Name)
	assert.Equal(t, 2, report.Categories[0].Items)
	assert.Equal(t, 1, report.Categories[0].LowStock)
	assert.Equal(t, 754.0, report.Categories[0].RetailValue)
	assert.Equal(t, "Frames", report.Categories[1].Name)
	assert.Equal(t, models.DefaultCategory, report.Categories[2].Name)
}

func TestBuildEmpty(t *testing.T) {
	report := Build(nil, reportTime)
	assert.Zero(t, report.TotalItems)
	assert.NotNil(t, report.LowStock)
	assert.Empty(t, report.Categories)
	assert.Empty(t, LowStockAlert(report))
}

func TestGenerateAndSave(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(sample, store, nil, nil)
	svc.now = func() time.Time { return reportTime }
	ctx := context.Background()

	report, err := svc.Generate(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Save(ctx, report))

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.TotalItems, latest.TotalItems)
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	err := NewService(sample, &memoryStore{}, nil, nil).Export(ctx)
	assert.ErrorIs(t, err, ErrSheetsDisabled)

	sheets := newRecordingSheets()
	svc := NewService(sample, &memoryStore{}, sheets, nil)
	svc.now = func() time.Time { return reportTime }
	require.NoError(t, svc.Export(ctx))

	rows := sheets.replaced[inventorySheet]
	require.Len(t, rows, len(sample)+1)
	assert.Equal(t, "Item", rows[0][0])
	assert.Equal(t, "Clear 12mm", rows[1][0])
	assert.Equal(t, 118.0, rows[1][11])
	assert.Equal(t, "yes", rows[1][12])
	assert.Equal(t, models.DefaultType, rows[3][3])

	summaries := sheets.appended[reportsRange]
	require.Len(t, summaries, 1)
	assert.Equal(t, []interface{}{"2026-06-01 20:00", 4, 2, 375.0, 809.0, 3}, summaries[0])
}

func TestLowStockAlert(t *testing.T) {
	msg := LowStockAlert(Build(sample, reportTime))
	assert.Contains(t, msg, "2 item(s)")
	assert.Contains(t, msg, "- Clear 12mm (Glass / Tempered @ Unassigned Location): 3 count, min 5")
	assert.Contains(t, msg, "Loose screws")
	assert.NotContains(t, msg, "Oak trim")
}
