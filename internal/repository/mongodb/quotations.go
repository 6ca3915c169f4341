package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// InsertQuotation stores a new quotation.
func (r *MongoDBRepository) InsertQuotation(ctx context.Context, q *models.Quotation) error {
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(quotationsCollection).InsertOne(ctx, q); err != nil {
		return fmt.Errorf("insert quotation: %w", err)
	}
	return nil
}

// UpdateQuotation replaces a stored quotation.
func (r *MongoDBRepository) UpdateQuotation(ctx context.Context, q *models.Quotation) error {
	if err := replaceByID(ctx, r.collection(quotationsCollection), q.ID, q); err != nil {
		return fmt.Errorf("update quotation %s: %w", q.ID.Hex(), err)
	}
	return nil
}

// FindQuotation loads a quotation by id regardless of its status.
func (r *MongoDBRepository) FindQuotation(ctx context.Context, id primitive.ObjectID) (*models.Quotation, error) {
	q, err := findOne[models.Quotation](ctx, r.collection(quotationsCollection), bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("find quotation %s: %w", id.Hex(), err)
	}
	return q, nil
}

// ListQuotations returns one page of active quotations and the total match count.
func (r *MongoDBRepository) ListQuotations(ctx context.Context, f models.QuotationFilter) ([]models.Quotation, int64, error) {
	coll := r.collection(quotationsCollection)
	filter := quotationFilterDocument(f)

	qs, err := findAll[models.Quotation](ctx, coll, filter, pageOptions(f.Page, f.Limit, f.SortBy, f.SortOrder))
	if err != nil {
		return nil, 0, fmt.Errorf("list quotations: %w", err)
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count quotations: %w", err)
	}
	return qs, total, nil
}

// ExpiringQuotations returns active quotations whose validity ends within [from, to], soonest first.
func (r *MongoDBRepository) ExpiringQuotations(ctx context.Context, from, to time.Time) ([]models.Quotation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "validUntil", Value: 1}})
	qs, err := findAll[models.Quotation](ctx, r.collection(quotationsCollection), expiringQuotationsFilter(from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("expiring quotations: %w", err)
	}
	return qs, nil
}

// ValidQuotations returns active, unexpired quotations, optionally limited to a creation window.
func (r *MongoDBRepository) ValidQuotations(ctx context.Context, now time.Time, createdFrom, createdTo *time.Time) ([]models.Quotation, error) {
	qs, err := findAll[models.Quotation](ctx, r.collection(quotationsCollection), validQuotationsFilter(now, createdFrom, createdTo))
	if err != nil {
		return nil, fmt.Errorf("valid quotations: %w", err)
	}
	return qs, nil
}
