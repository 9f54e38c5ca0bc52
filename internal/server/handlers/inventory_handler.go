package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/inventory"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/stock"
)

const heartbeatInterval = 25 * time.Second

// InventoryService is the item surface used by the inventory endpoints.
type InventoryService interface {
	List(ctx context.Context) ([]models.StockItem, error)
	Get(ctx context.Context, id string) (models.StockItem, error)
	Create(ctx context.Context, actor models.UserProfile, item models.StockItem) (models.StockItem, error)
	Update(ctx context.Context, actor models.UserProfile, id string, patch models.StockPatch) (models.StockItem, error)
	Delete(ctx context.Context, actor models.UserProfile, id string) error
	DeleteByField(ctx context.Context, actor models.UserProfile, field models.ClassificationField, value string) (int64, error)
	Subscribe(ctx context.Context) (<-chan stock.Snapshot, func(), error)
}

// InventoryHandler serves the item endpoints and the snapshot stream.
type InventoryHandler struct {
	svc    InventoryService
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc InventoryService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type createItemRequest struct {
	ItemName      string      `json:"itemName" binding:"required"`
	SKU           string      `json:"sku"`
	Category      string      `json:"category"`
	Type          string      `json:"type"`
	Location      string      `json:"location"`
	Quantity      float64     `json:"quantity" binding:"gte=0"`
	Unit          models.Unit `json:"unit" binding:"omitempty,oneof=count feet ton"`
	MinStock      *float64    `json:"minStock" binding:"omitempty,gte=0"`
	PurchasePrice float64     `json:"purchasePrice" binding:"gte=0"`
	SellingPrice  float64     `json:"sellingPrice" binding:"gte=0"`
	GST           float64     `json:"gst" binding:"gte=0"`
}

func (r createItemRequest) item() models.StockItem {
	minStock := models.DefaultMinStock
	if r.MinStock != nil {
		minStock = *r.MinStock
	}
	return models.StockItem{
		ItemName:      r.ItemName,
		SKU:           r.SKU,
		Category:      r.Category,
		Type:          r.Type,
		Location:      r.Location,
		Quantity:      r.Quantity,
		Unit:          r.Unit,
		MinStock:      minStock,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
		GST:           r.GST,
	}
}

// List returns the flat item list, optionally filtered by ?q=.
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	items = inventory.Search(items, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"items": itemViews(items, CurrentUser(c).IsAdmin()), "count": len(items)})
}

// Grouped returns the category/type tree, or category/type/location with ?by=location.
func (h *InventoryHandler) Grouped(c *gin.Context) {
	byLocation, ok := groupingParam(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": treeView(items, byLocation, CurrentUser(c).IsAdmin())})
}

// LowStock returns the items at or below their minimum stock.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	low := inventory.LowStock(items)
	c.JSON(http.StatusOK, gin.H{"items": itemViews(low, CurrentUser(c).IsAdmin()), "count": len(low)})
}

// Options returns the distinct categories and locations, plus the types of ?category= when given.
func (h *InventoryHandler) Options(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{
		"categories": inventory.Categories(items),
		"locations":  inventory.Locations(items),
		"types":      []string{},
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		resp["types"] = inventory.Types(items, category)
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one item.
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewItemView(item, CurrentUser(c).IsAdmin()))
}

// Create adds an item.
func (h *InventoryHandler) Create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	actor := CurrentUser(c)
	item, err := h.svc.Create(c.Request.Context(), actor, req.item())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewItemView(item, actor.IsAdmin()))
}

// Update applies a partial update.
func (h *InventoryHandler) Update(c *gin.Context) {
	var patch models.StockPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	actor := CurrentUser(c)
	item, err := h.svc.Update(c.Request.Context(), actor, c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewItemView(item, actor.IsAdmin()))
}

// Delete removes one item.
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentUser(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteByField removes every item matching ?field=category|type|location&value=.
func (h *InventoryHandler) DeleteByField(c *gin.Context) {
	field := models.ClassificationField(c.Query("field"))
	n, err := h.svc.DeleteByField(c.Request.Context(), CurrentUser(c), field, c.Query("value"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// Stream pushes a "snapshot" server-sent event with the grouped tree on every inventory change.
func (h *InventoryHandler) Stream(c *gin.Context) {
	byLocation, ok := groupingParam(c)
	if !ok {
		return
	}
	admin := CurrentUser(c).IsAdmin()

	snapshots, cancel, err := h.svc.Subscribe(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	defer cancel()

	// the server write timeout would otherwise cut long-lived streams
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("stream write deadline not cleared", zap.Error(err))
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case snap, open := <-snapshots:
			if !open {
				return false
			}
			c.SSEvent("snapshot", gin.H{
				"seq":        snap.Seq,
				"at":         snap.At,
				"count":      len(snap.Items),
				"categories": treeView(snap.Items, byLocation, admin),
			})
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *InventoryHandler) fail(c *gin.Context, err error) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("inventory request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	abortWithError(c, err)
}

func groupingParam(c *gin.Context) (byLocation bool, ok bool) {
	switch strings.ToLower(c.Query("by")) {
	case "", "type":
		return false, true
	case "location":
		return true, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "by must be type or location"})
		return false, false
	}
}
