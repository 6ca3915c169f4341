package mongodb

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// FindProduct loads a product by id regardless of its status.
func (r *MongoDBRepository) FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := findOne[models.Product](ctx, r.collection(productsCollection), bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return p, nil
}

// FindProductsByIDs loads the given products keyed by id. Unknown ids are absent from the map.
func (r *MongoDBRepository) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := findAll[models.Product](ctx, r.collection(productsCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// ListProducts returns one page of products ordered by name.
func (r *MongoDBRepository) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	coll := r.collection(productsCollection)
	filter := productFilterDocument(f)

	products, err := findAll[models.Product](ctx, coll, filter, pageOptions(f.Page, f.Limit, "name", models.SortAsc))
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

// ProductCategories returns the distinct categories of active products.
func (r *MongoDBRepository) ProductCategories(ctx context.Context) ([]string, error) {
	values, err := r.collection(productsCollection).Distinct(ctx, "category", bson.M{"status": models.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// InsertProduct stores a new product. A duplicate code yields models.ErrDuplicateKey.
func (r *MongoDBRepository) InsertProduct(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.collection(productsCollection).InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert product %s: %w", p.Code, models.ErrDuplicateKey)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProductStatus flips the lifecycle status of a product.
func (r *MongoDBRepository) UpdateProductStatus(ctx context.Context, id primitive.ObjectID, status models.RecordStatus) error {
	res, err := r.collection(productsCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}, "$currentDate": bson.M{"updatedAt": true}},
	)
	if err != nil {
		return fmt.Errorf("update product %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update product %s: %w", id.Hex(), models.ErrRecordNotFound)
	}
	return nil
}

// UpdateProduct replaces a stored product.
func (r *MongoDBRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := replaceByID(ctx, r.collection(productsCollection), p.ID, p); err != nil {
		return fmt.Errorf("update product %s: %w", p.ID.Hex(), err)
	}
	return nil
}

// PricedProducts returns the active products carrying a list price, limited to
// ids when any are given.
func (r *MongoDBRepository) PricedProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	products, err := findAll[models.Product](ctx, r.collection(productsCollection), pricedProductsFilter(ids), opts)
	if err != nil {
		return nil, fmt.Errorf("priced products: %w", err)
	}
	return products, nil
}
