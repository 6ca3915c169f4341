package mongodb

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

func productFilterDocument(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"code": rx},
			bson.M{"category": rx},
			bson.M{"description": rx},
		}
	}
	return filter
}

func costFilterDocument(f models.CostFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.ProductID != nil {
		filter["productId"] = *f.ProductID
	}
	if f.DateFrom != nil || f.DateTo != nil {
		rng := bson.M{}
		if f.DateFrom != nil {
			rng["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			rng["$lte"] = *f.DateTo
		}
		filter["effectiveDate"] = rng
	}
	return filter
}

func previousCostFilter(productID, excludeID primitive.ObjectID, before time.Time) bson.M {
	return bson.M{
		"productId":     productID,
		"status":        models.StatusActive,
		"effectiveDate": bson.M{"$lt": before},
		"_id":           bson.M{"$ne": excludeID},
	}
}

func quotationFilterDocument(f models.QuotationFilter) bson.M {
	filter := bson.M{"status": models.StatusActive}
	if f.ProductID != nil {
		filter["productId"] = *f.ProductID
	}
	if f.CustomerType != "" {
		filter["customerType"] = f.CustomerType
	}
	if f.ValidOnly {
		filter["validUntil"] = bson.M{"$gte": f.Now}
	}
	return filter
}

func validQuotationsFilter(now time.Time, createdFrom, createdTo *time.Time) bson.M {
	filter := bson.M{
		"status":     models.StatusActive,
		"validUntil": bson.M{"$gte": now},
	}
	if createdFrom != nil || createdTo != nil {
		rng := bson.M{}
		if createdFrom != nil {
			rng["$gte"] = *createdFrom
		}
		if createdTo != nil {
			rng["$lte"] = *createdTo
		}
		filter["createdAt"] = rng
	}
	return filter
}

func expiringQuotationsFilter(from, to time.Time) bson.M {
	return bson.M{
		"status":     models.StatusActive,
		"validUntil": bson.M{"$gte": from, "$lte": to},
	}
}

func pageOptions(page, limit int, sortBy string, order models.SortOrder) *options.FindOptions {
	dir := -1
	if order == models.SortAsc {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortBy, Value: dir}, {Key: "_id", Value: dir}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
		if page > 1 {
			opts.SetSkip(int64((page - 1) * limit))
		}
	}
	return opts
}

func pricedProductsFilter(ids []primitive.ObjectID) bson.M {
	filter := bson.M{
		"status": models.StatusActive,
		"$or": bson.A{
			bson.M{"pricing.unitPrice": bson.M{"$gt": 0}},
			bson.M{"pricing.marketPrice": bson.M{"$gt": 0}},
		},
	}
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}
	return filter
}

// latestCostsPipeline keeps the newest active snapshot of each product.
func latestCostsPipeline(productIDs []primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"productId": bson.M{"$in": productIDs},
			"status":    models.StatusActive,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "effectiveDate", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{"_id": "$productId", "latest": bson.M{"$first": "$$ROOT"}}}},
		{{Key: "$replaceWith", Value: "$latest"}},
	}
}
