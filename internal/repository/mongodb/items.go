package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// ListItems returns every stock item ordered by category, then item name.
func (r *MongoDBRepository) ListItems(ctx context.Context) ([]models.StockItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "item_name", Value: 1}})
	cursor, err := r.db.Collection(itemsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	items := []models.StockItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

// GetItem loads one item by id.
func (r *MongoDBRepository) GetItem(ctx context.Context, id string) (models.StockItem, error) {
	var item models.StockItem
	err := r.db.Collection(itemsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		return models.StockItem{}, fmt.Errorf("find item %s: %w", id, notFound(err))
	}
	return item, nil
}

// InsertItem stores a new item under a freshly generated id.
func (r *MongoDBRepository) InsertItem(ctx context.Context, item models.StockItem) (models.StockItem, error) {
	item.ID = primitive.NewObjectID().Hex()
	if _, err := r.db.Collection(itemsCollection).InsertOne(ctx, item); err != nil {
		return models.StockItem{}, fmt.Errorf("failed to insert item: %w", err)
	}
	return item, nil
}

// UpdateItem applies the set fields of patch and stamps lastUpdated, returning the new document.
func (r *MongoDBRepository) UpdateItem(ctx context.Context, id string, patch models.StockPatch, at time.Time) (models.StockItem, error) {
	set := patchDocument(patch)
	set["last_updated"] = at

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var item models.StockItem
	err := r.db.Collection(itemsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&item)
	if err != nil {
		return models.StockItem{}, fmt.Errorf("update item %s: %w", id, notFound(err))
	}
	return item, nil
}

// DeleteItem removes one item.
func (r *MongoDBRepository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.Collection(itemsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete item %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteItemsByField removes every item whose classification field equals value.
// Passing the sentinel label of the field also removes items where the field is empty.
func (r *MongoDBRepository) DeleteItemsByField(ctx context.Context, field models.ClassificationField, value string) (int64, error) {
	key := string(field)
	filter := bson.M{key: value}
	if value == sentinelFor(field) {
		filter = bson.M{"$or": bson.A{
			bson.M{key: value},
			bson.M{key: ""},
			bson.M{key: bson.M{"$exists": false}},
		}}
	}

	res, err := r.db.Collection(itemsCollection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete items by %s: %w", key, err)
	}
	return res.DeletedCount, nil
}

// WatchItems calls onChange for every change event on the items collection until ctx is done.
// Change streams need a replica set; the error from opening the stream is returned as is.
func (r *MongoDBRepository) WatchItems(ctx context.Context, onChange func()) error {
	stream, err := r.db.Collection(itemsCollection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return fmt.Errorf("watch items: %w", err)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		onChange()
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("items change stream: %w", err)
	}
	return nil
}

func patchDocument(p models.StockPatch) bson.M {
	set := bson.M{}
	if p.ItemName != nil {
		set["item_name"] = *p.ItemName
	}
	if p.SKU != nil {
		set["sku"] = *p.SKU
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Quantity != nil {
		set["quantity"] = *p.Quantity
	}
	if p.Unit != nil {
		set["unit"] = *p.Unit
	}
	if p.MinStock != nil {
		set["min_stock"] = *p.MinStock
	}
	if p.PurchasePrice != nil {
		set["purchase_price"] = *p.PurchasePrice
	}
	if p.SellingPrice != nil {
		set["selling_price"] = *p.SellingPrice
	}
	if p.GST != nil {
		set["gst"] = *p.GST
	}
	return set
}

func sentinelFor(field models.ClassificationField) string {
	switch field {
	case models.FieldCategory:
		return models.DefaultCategory
	case models.FieldType:
		return models.DefaultType
	case models.FieldLocation:
		return models.DefaultLocation
	}
	return ""
}
