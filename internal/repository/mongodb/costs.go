package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// InsertCost stores a new cost snapshot.
func (r *MongoDBRepository) InsertCost(ctx context.Context, rec *models.CostRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(costsCollection).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert cost: %w", err)
	}
	r.logger.Debug("cost inserted", zap.String("id", rec.ID.Hex()), zap.String("product_id", rec.ProductID.Hex()))
	return nil
}

// UpdateCost replaces a stored cost snapshot.
func (r *MongoDBRepository) UpdateCost(ctx context.Context, rec *models.CostRecord) error {
	if err := replaceByID(ctx, r.collection(costsCollection), rec.ID, rec); err != nil {
		return fmt.Errorf("update cost %s: %w", rec.ID.Hex(), err)
	}
	return nil
}

// FindCost loads a cost snapshot by id regardless of its status.
func (r *MongoDBRepository) FindCost(ctx context.Context, id primitive.ObjectID) (*models.CostRecord, error) {
	rec, err := findOne[models.CostRecord](ctx, r.collection(costsCollection), bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("find cost %s: %w", id.Hex(), err)
	}
	return rec, nil
}

// FindCostsByIDs loads the given snapshots keyed by id.
func (r *MongoDBRepository) FindCostsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.CostRecord, error) {
	out := make(map[primitive.ObjectID]*models.CostRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	recs, err := findAll[models.CostRecord](ctx, r.collection(costsCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find costs: %w", err)
	}
	for i := range recs {
		out[recs[i].ID] = &recs[i]
	}
	return out, nil
}

// FindPreviousCost returns the latest other active snapshot of the product
// effective strictly before the given date, or nil when there is none.
func (r *MongoDBRepository) FindPreviousCost(ctx context.Context, productID, excludeID primitive.ObjectID, before time.Time) (*models.CostRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "effectiveDate", Value: -1}})
	rec, err := findOne[models.CostRecord](ctx, r.collection(costsCollection), previousCostFilter(productID, excludeID, before), opts)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find previous cost: %w", err)
	}
	return rec, nil
}

// ListCosts returns one page of cost snapshots and the total match count.
func (r *MongoDBRepository) ListCosts(ctx context.Context, f models.CostFilter) ([]models.CostRecord, int64, error) {
	coll := r.collection(costsCollection)
	filter := costFilterDocument(f)

	recs, err := findAll[models.CostRecord](ctx, coll, filter, pageOptions(f.Page, f.Limit, f.SortBy, f.SortOrder))
	if err != nil {
		return nil, 0, fmt.Errorf("list costs: %w", err)
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count costs: %w", err)
	}
	return recs, total, nil
}

// CostsSince returns the active snapshots of a product effective on or after since.
func (r *MongoDBRepository) CostsSince(ctx context.Context, productID primitive.ObjectID, since time.Time) ([]models.CostRecord, error) {
	filter := bson.M{
		"productId":     productID,
		"status":        models.StatusActive,
		"effectiveDate": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "effectiveDate", Value: 1}})
	recs, err := findAll[models.CostRecord](ctx, r.collection(costsCollection), filter, opts)
	if err != nil {
		return nil, fmt.Errorf("costs since %s: %w", since.Format(time.RFC3339), err)
	}
	return recs, nil
}

// CostHistory returns the latest active snapshots of a product, newest first.
func (r *MongoDBRepository) CostHistory(ctx context.Context, productID primitive.ObjectID, limit int) ([]models.CostRecord, error) {
	filter := bson.M{"productId": productID, "status": models.StatusActive}
	opts := options.Find().SetSort(bson.D{{Key: "effectiveDate", Value: -1}}).SetLimit(int64(limit))
	recs, err := findAll[models.CostRecord](ctx, r.collection(costsCollection), filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cost history: %w", err)
	}
	return recs, nil
}

// LatestCosts returns the newest active snapshot of each product, keyed by product id.
// Products without an active snapshot are absent from the map.
func (r *MongoDBRepository) LatestCosts(ctx context.Context, productIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.CostRecord, error) {
	out := make(map[primitive.ObjectID]*models.CostRecord, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	cursor, err := r.collection(costsCollection).Aggregate(ctx, latestCostsPipeline(productIDs))
	if err != nil {
		return nil, fmt.Errorf("latest costs: %w", err)
	}
	var recs []models.CostRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode latest costs: %w", err)
	}
	for i := range recs {
		out[recs[i].ProductID] = &recs[i]
	}
	return out, nil
}
