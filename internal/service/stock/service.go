package stock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/inventory"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/repository/mongodb"
)

var (
	// ErrNotFound is returned when the item does not exist.
	ErrNotFound = errors.New("stock item not found")
	// ErrForbidden is returned when the actor's role does not allow the change.
	ErrForbidden = errors.New("not permitted for this role")
	// ErrInvalidItem is returned when the submitted values are rejected.
	ErrInvalidItem = errors.New("invalid stock item")
)

// Repository is the item storage the service needs.
type Repository interface {
	ListItems(ctx context.Context) ([]models.StockItem, error)
	GetItem(ctx context.Context, id string) (models.StockItem, error)
	InsertItem(ctx context.Context, item models.StockItem) (models.StockItem, error)
	UpdateItem(ctx context.Context, id string, patch models.StockPatch, at time.Time) (models.StockItem, error)
	DeleteItem(ctx context.Context, id string) error
	DeleteItemsByField(ctx context.Context, field models.ClassificationField, value string) (int64, error)
}

// Watcher streams change notifications for the item collection.
type Watcher interface {
	WatchItems(ctx context.Context, onChange func()) error
}

// Service applies role rules to item mutations and keeps the snapshot feed current.
type Service struct {
	repo    Repository
	feed    *Feed
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	// watching is set while a change stream drives the feed, so writes skip their own refresh.
	watching atomic.Bool

	// refreshMu keeps read-then-publish atomic so snapshots are published in read order.
	refreshMu sync.Mutex
}

// NewService wires a new stock service instance.
func NewService(repo Repository, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		feed:    NewFeed(m.SetSubscribers),
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns every item ordered by category.
func (s *Service) List(ctx context.Context) ([]models.StockItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (models.StockItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return models.StockItem{}, translate(err)
	}
	return item, nil
}

// Create stores a new item. Only admins may create items.
func (s *Service) Create(ctx context.Context, actor models.UserProfile, item models.StockItem) (models.StockItem, error) {
	if !actor.IsAdmin() {
		return models.StockItem{}, ErrForbidden
	}

	item = normalizeItem(item)
	if err := validateItem(item); err != nil {
		return models.StockItem{}, err
	}
	item.ID = ""
	item.LastUpdated = s.now().UTC()

	stored, err := s.repo.InsertItem(ctx, item)
	if err != nil {
		return models.StockItem{}, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info("stock item created",
		zap.String("id", stored.ID),
		zap.String("category", stored.Category),
		zap.String("actor", actor.UID))
	s.afterWrite(ctx)
	return stored, nil
}

// Update applies a partial update. Regular users may only change the quantity.
func (s *Service) Update(ctx context.Context, actor models.UserProfile, id string, patch models.StockPatch) (models.StockItem, error) {
	if patch.Empty() {
		return models.StockItem{}, fmt.Errorf("%w: nothing to update", ErrInvalidItem)
	}
	if !actor.IsAdmin() && !patch.OnlyQuantity() {
		return models.StockItem{}, ErrForbidden
	}

	patch = normalizePatch(patch)
	if err := validatePatch(patch); err != nil {
		return models.StockItem{}, err
	}

	updated, err := s.repo.UpdateItem(ctx, id, patch, s.now().UTC())
	if err != nil {
		return models.StockItem{}, translate(err)
	}

	s.logger.Info("stock item updated",
		zap.String("id", id),
		zap.Strings("fields", patch.Fields()),
		zap.String("actor", actor.UID))
	s.afterWrite(ctx)
	return updated, nil
}

// Delete removes one item. Only admins may delete.
func (s *Service) Delete(ctx context.Context, actor models.UserProfile, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return translate(err)
	}

	s.logger.Info("stock item deleted", zap.String("id", id), zap.String("actor", actor.UID))
	s.afterWrite(ctx)
	return nil
}

// DeleteByField removes every item whose category, type or location equals value.
func (s *Service) DeleteByField(ctx context.Context, actor models.UserProfile, field models.ClassificationField, value string) (int64, error) {
	if !actor.IsAdmin() {
		return 0, ErrForbidden
	}
	if !field.Valid() {
		return 0, fmt.Errorf("%w: cannot bulk delete by %q", ErrInvalidItem, field)
	}
	if strings.TrimSpace(value) == "" {
		return 0, fmt.Errorf("%w: value must not be empty", ErrInvalidItem)
	}

	n, err := s.repo.DeleteItemsByField(ctx, field, value)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}

	s.logger.Warn("stock items bulk deleted",
		zap.String("field", string(field)),
		zap.String("value", value),
		zap.Int64("deleted", n),
		zap.String("actor", actor.UID))
	if n > 0 {
		s.afterWrite(ctx)
	}
	return n, nil
}

// Subscribe returns a channel of whole-collection snapshots, starting with the current one.
// The subscription ends when ctx is done or cancel is called; the channel is then closed.
func (s *Service) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch, cancel := s.feed.Subscribe()

	if _, ok := s.feed.Latest(); !ok {
		if err := s.Refresh(ctx); err != nil {
			cancel()
			return nil, nil, err
		}
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return ch, stop, nil
}

// Refresh reloads the collection and publishes it to subscribers.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	snap := s.feed.Publish(items, s.now().UTC())
	s.metrics.ObserveSnapshot(len(items), len(inventory.LowStock(items)))
	s.logger.Debug("snapshot published", zap.Uint64("seq", snap.Seq), zap.Int("items", len(items)))
	return nil
}

// WatchChanges drives the feed from a change stream until ctx is done. While the stream is
// open, writes made through this service rely on it instead of refreshing themselves.
func (s *Service) WatchChanges(ctx context.Context, w Watcher) error {
	s.watching.Store(true)
	defer s.watching.Store(false)

	return w.WatchItems(ctx, func() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("refresh after change event failed", zap.Error(err))
		}
	})
}

func (s *Service) afterWrite(ctx context.Context) {
	if s.watching.Load() {
		return
	}
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("refresh after write failed", zap.Error(err))
	}
}

func translate(err error) error {
	if errors.Is(err, mongodb.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func normalizeItem(item models.StockItem) models.StockItem {
	item.ItemName = strings.TrimSpace(item.ItemName)
	item.SKU = strings.TrimSpace(item.SKU)
	item.Category = inventory.FormatMasterData(item.Category)
	item.Type = inventory.FormatMasterData(item.Type)
	item.Location = inventory.FormatMasterData(item.Location)
	if item.Unit == "" {
		item.Unit = models.UnitCount
	}
	return item
}

func normalizePatch(p models.StockPatch) models.StockPatch {
	trim := func(v *string, fn func(string) string) *string {
		if v == nil {
			return nil
		}
		out := fn(*v)
		return &out
	}
	p.ItemName = trim(p.ItemName, strings.TrimSpace)
	p.SKU = trim(p.SKU, strings.TrimSpace)
	p.Category = trim(p.Category, inventory.FormatMasterData)
	p.Type = trim(p.Type, inventory.FormatMasterData)
	p.Location = trim(p.Location, inventory.FormatMasterData)
	return p
}

func validateItem(item models.StockItem) error {
	if item.ItemName == "" {
		return fmt.Errorf("%w: item name is required", ErrInvalidItem)
	}
	if !item.Unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidItem, item.Unit)
	}
	return validateAmounts([]amount{
		{"quantity", &item.Quantity},
		{"minStock", &item.MinStock},
		{"purchasePrice", &item.PurchasePrice},
		{"sellingPrice", &item.SellingPrice},
		{"gst", &item.GST},
	})
}

func validatePatch(p models.StockPatch) error {
	if p.ItemName != nil && *p.ItemName == "" {
		return fmt.Errorf("%w: item name is required", ErrInvalidItem)
	}
	if p.Unit != nil && !p.Unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidItem, *p.Unit)
	}
	return validateAmounts([]amount{
		{"quantity", p.Quantity},
		{"minStock", p.MinStock},
		{"purchasePrice", p.PurchasePrice},
		{"sellingPrice", p.SellingPrice},
		{"gst", p.GST},
	})
}

// amount is a named numeric field; a nil value is skipped.
type amount struct {
	name  string
	value *float64
}

// validateAmounts reports the first invalid amount in slice order.
func validateAmounts(amounts []amount) error {
	for _, a := range amounts {
		if a.value == nil {
			continue
		}
		v := *a.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidItem, a.name)
		}
	}
	return nil
}
