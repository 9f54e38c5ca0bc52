package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/inventory"
	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// maxLines keeps replies well under the WhatsApp text limit.
const maxLines = 25

const helpText = `Stockroom bot commands:
/low - items at or below their minimum stock
/stock <category> - quantities for a category, by type
/find <text> - search by name, SKU, category, type or location
/help - this message`

// InventoryReader loads the current inventory.
type InventoryReader interface {
	List(ctx context.Context) ([]models.StockItem, error)
}

// Dispatcher answers parsed bot commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface. Replies never carry prices.
type Service struct {
	inventory InventoryReader
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(reader InventoryReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inventory: reader, logger: logger}
}

// HandleCommand runs the command against the current inventory and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandLow, models.CommandStock, models.CommandFind:
	case models.CommandHelp:
		return helpText, nil
	default:
		return "Sorry, I did not understand that.\n\n" + helpText, nil
	}

	if cmd.Type != models.CommandLow && strings.TrimSpace(cmd.Argument()) == "" {
		return "", fmt.Errorf("%w: /%s needs an argument", ErrInvalidArguments, cmd.Type)
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load inventory: %w", err)
	}

	switch cmd.Type {
	case models.CommandLow:
		return lowStockReply(items), nil
	case models.CommandStock:
		return categoryReply(items, cmd.Argument()), nil
	default:
		return findReply(items, cmd.Argument()), nil
	}
}

func lowStockReply(items []models.StockItem) string {
	low := inventory.LowStock(items)
	if len(low) == 0 {
		return "All items are above their minimum stock."
	}

	lines := make([]string, 0, len(low))
	for _, it := range low {
		lines = append(lines, fmt.Sprintf("- %s (%s / %s @ %s): %s, min %g",
			it.ItemName, it.CategoryOrDefault(), it.TypeOrDefault(), it.LocationOrDefault(),
			quantity(it.Quantity, it.Unit), it.MinStock))
	}
	return fmt.Sprintf("Low stock: %d item(s)\n%s", len(low), clip(lines))
}

func categoryReply(items []models.StockItem, name string) string {
	tree := inventory.Group(items)
	for _, cat := range tree {
		if !strings.EqualFold(cat.Name, strings.TrimSpace(name)) {
			continue
		}

		lines := make([]string, 0, len(cat.Types))
		for _, typ := range cat.Types {
			totals := make(map[models.Unit]float64)
			low := 0
			for _, it := range typ.Items {
				totals[unitOrDefault(it.Unit)] += it.Quantity
				if inventory.IsLowStock(it) {
					low++
				}
			}

			line := fmt.Sprintf("- %s: %s", typ.Name, joinTotals(totals))
			if low > 0 {
				line += fmt.Sprintf(" (%d low)", low)
			}
			lines = append(lines, line)
		}
		return fmt.Sprintf("%s: %d item(s)\n%s", cat.Name, cat.Count(), clip(lines))
	}

	categories := inventory.Categories(items)
	if len(categories) == 0 {
		return "The inventory is empty."
	}
	return fmt.Sprintf("No category named %q. Known categories: %s", strings.TrimSpace(name), strings.Join(categories, ", "))
}

func findReply(items []models.StockItem, term string) string {
	found := inventory.Search(items, term)
	if len(found) == 0 {
		return fmt.Sprintf("Nothing matches %q.", strings.TrimSpace(term))
	}

	lines := make([]string, 0, len(found))
	for _, it := range found {
		line := "- " + it.ItemName
		if it.SKU != "" {
			line += " [" + it.SKU + "]"
		}
		line += fmt.Sprintf(" (%s / %s @ %s): %s", it.CategoryOrDefault(), it.TypeOrDefault(), it.LocationOrDefault(), quantity(it.Quantity, it.Unit))
		if inventory.IsLowStock(it) {
			line += " LOW"
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("%d match(es) for %q\n%s", len(found), strings.TrimSpace(term), clip(lines))
}

func clip(lines []string) string {
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	rest := len(lines) - maxLines
	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n...and %d more", rest)
}

func joinTotals(totals map[models.Unit]float64) string {
	units := make([]string, 0, len(totals))
	for u := range totals {
		units = append(units, string(u))
	}
	sort.Strings(units)

	parts := make([]string, 0, len(units))
	for _, u := range units {
		parts = append(parts, quantity(totals[models.Unit(u)], models.Unit(u)))
	}
	return strings.Join(parts, ", ")
}

func quantity(q float64, unit models.Unit) string {
	return fmt.Sprintf("%g %s", q, unitOrDefault(unit))
}

func unitOrDefault(u models.Unit) models.Unit {
	if u == "" {
		return models.UnitCount
	}
	return u
}
