package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

func TestCostFilterDocument(t *testing.T) {
	pid := primitive.NewObjectID()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	got := costFilterDocument(models.CostFilter{
		Status:    models.StatusActive,
		ProductID: &pid,
		DateFrom:  &from,
		DateTo:    &to,
	})

	assert.Equal(t, bson.M{
		"status":        models.StatusActive,
		"productId":     pid,
		"effectiveDate": bson.M{"$gte": from, "$lte": to},
	}, got)
}

func TestCostFilterDocumentEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, costFilterDocument(models.CostFilter{}))
}

func TestPreviousCostFilterExcludesCurrent(t *testing.T) {
	pid, self := primitive.NewObjectID(), primitive.NewObjectID()
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got := previousCostFilter(pid, self, before)
	assert.Equal(t, pid, got["productId"])
	assert.Equal(t, models.StatusActive, got["status"])
	assert.Equal(t, bson.M{"$lt": before}, got["effectiveDate"])
	assert.Equal(t, bson.M{"$ne": self}, got["_id"])
}

func TestProductFilterDocumentEscapesSearch(t *testing.T) {
	got := productFilterDocument(models.ProductFilter{Search: "a.b", Status: models.StatusActive})
	or, ok := got["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 4)
	name := or[0].(bson.M)["name"].(primitive.Regex)
	assert.Equal(t, `a\.b`, name.Pattern)
	assert.Equal(t, "i", name.Options)
	assert.Equal(t, models.StatusActive, got["status"])
}

func TestQuotationFilterDocument(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	got := quotationFilterDocument(models.QuotationFilter{
		CustomerType: models.CustomerVIP,
		ValidOnly:    true,
		Now:          now,
	})
	assert.Equal(t, bson.M{
		"status":       models.StatusActive,
		"customerType": models.CustomerVIP,
		"validUntil":   bson.M{"$gte": now},
	}, got)
}

func TestValidQuotationsFilter(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	from := now.AddDate(0, -1, 0)

	withoutRange := validQuotationsFilter(now, nil, nil)
	_, hasCreated := withoutRange["createdAt"]
	assert.False(t, hasCreated)

	withFrom := validQuotationsFilter(now, &from, nil)
	assert.Equal(t, bson.M{"$gte": from}, withFrom["createdAt"])
	assert.Equal(t, bson.M{"$gte": now}, withFrom["validUntil"])
}

func TestExpiringQuotationsFilter(t *testing.T) {
	from := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	got := expiringQuotationsFilter(from, to)
	assert.Equal(t, bson.M{"$gte": from, "$lte": to}, got["validUntil"])
}

func TestPageOptions(t *testing.T) {
	opts := pageOptions(3, 20, "totalCost", models.SortAsc)
	require.NotNil(t, opts.Limit)
	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(20), *opts.Limit)
	assert.Equal(t, int64(40), *opts.Skip)
	assert.Equal(t, bson.D{{Key: "totalCost", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)

	first := pageOptions(1, 10, "createdAt", models.SortDesc)
	assert.Nil(t, first.Skip)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, first.Sort)
}

func TestPricedProductsFilter(t *testing.T) {
	all := pricedProductsFilter(nil)
	assert.Equal(t, models.StatusActive, all["status"])
	assert.NotContains(t, all, "_id")
	assert.Len(t, all["$or"], 2)

	id := primitive.NewObjectID()
	some := pricedProductsFilter([]primitive.ObjectID{id})
	assert.Equal(t, bson.M{"$in": []primitive.ObjectID{id}}, some["_id"])
}

func TestLatestCostsPipeline(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID()}
	pipeline := latestCostsPipeline(ids)
	require.Len(t, pipeline, 4)

	stages := make([]string, 0, len(pipeline))
	for _, stage := range pipeline {
		stages = append(stages, stage[0].Key)
	}
	assert.Equal(t, []string{"$match", "$sort", "$group", "$replaceWith"}, stages)
	assert.Equal(t, bson.M{"productId": bson.M{"$in": ids}, "status": models.StatusActive}, pipeline[0][0].Value)
	assert.Equal(t, bson.D{{Key: "effectiveDate", Value: -1}, {Key: "_id", Value: -1}}, pipeline[1][0].Value)
}
