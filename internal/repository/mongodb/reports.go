package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// SaveReport saves an inventory report to the database.
func (r *MongoDBRepository) SaveReport(ctx context.Context, report models.InventoryReport) error {
	if _, err := r.db.Collection(reportsCollection).InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert inventory report: %w", err)
	}
	return nil
}

// LatestReport returns the most recently generated report.
func (r *MongoDBRepository) LatestReport(ctx context.Context) (models.InventoryReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})

	var report models.InventoryReport
	if err := r.db.Collection(reportsCollection).FindOne(ctx, bson.D{}, opts).Decode(&report); err != nil {
		return models.InventoryReport{}, fmt.Errorf("find latest report: %w", notFound(err))
	}
	return report, nil
}
