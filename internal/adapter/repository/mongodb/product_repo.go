package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/catalog/domain"
)

const (
	productsCollection   = "products"
	imagesCollection     = "images"
	farmersCollection    = "farmers"
	categoriesCollection = "categories"
)

type ProductRepository struct {
	products *mongo.Collection
	images   *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		products: db.Collection(productsCollection),
		images:   db.Collection(imagesCollection),
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) (string, error) {
	doc := toProductDocument(product)
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
		doc.UpdatedAt = doc.CreatedAt
	}
	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return doc.ID, nil
}

// FindByQuery runs the catalog aggregation: match and sort per the query
// description, then join images, the owning farmer's public profile and the
// category name onto each row.
func (r *ProductRepository) FindByQuery(ctx context.Context, query domain.Query) ([]*domain.Product, error) {
	match, sort, err := translateQuery(query)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: sort}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         imagesCollection,
			"localField":   "_id",
			"foreignField": "product_id",
			"as":           "images",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         farmersCollection,
			"localField":   "farmer_id",
			"foreignField": "_id",
			"as":           "farmer",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$farmer",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         categoriesCollection,
			"localField":   "category_id",
			"foreignField": "_id",
			"as":           "category",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$category",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("catalog aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode catalog rows: %w", err)
	}
	products := toDomainProducts(docs)
	for _, p := range products {
		sortImages(p)
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDocument
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}

	product := toDomainProduct(&doc)
	images, err := r.findImages(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Images = images
	return product, nil
}

func (r *ProductRepository) FindByFarmer(ctx context.Context, farmerID string) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.products.Find(ctx, bson.M{"farmer_id": farmerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find products for farmer %s: %w", farmerID, err)
	}
	defer cursor.Close(ctx)

	var docs []*productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode farmer products: %w", err)
	}
	return toDomainProducts(docs), nil
}

// UpdateStatus flips only the status field. Re-applying the same status is a
// successful no-op, which keeps archival idempotent.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	res, err := r.products.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("update status of %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ProductRepository) AddImages(ctx context.Context, images []domain.Image) error {
	if len(images) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(images))
	now := time.Now()
	for i := range images {
		doc := toImageDocument(&images[i])
		if doc.ID == "" {
			doc.ID = primitive.NewObjectID().Hex()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		docs = append(docs, doc)
	}
	if _, err := r.images.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert image records: %w", err)
	}
	return nil
}

func (r *ProductRepository) findImages(ctx context.Context, productID string) ([]domain.Image, error) {
	opts := options.Find().SetSort(bson.D{{Key: "upload_order", Value: 1}})
	cursor, err := r.images.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find images of %s: %w", productID, err)
	}
	defer cursor.Close(ctx)

	var docs []*imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	images := make([]domain.Image, 0, len(docs))
	for _, doc := range docs {
		images = append(images, toDomainImage(doc))
	}
	return images, nil
}

// sortImages orders a joined image set by upload order. $lookup does not
// guarantee element order.
func sortImages(p *domain.Product) {
	sort.Slice(p.Images, func(i, j int) bool {
		return p.Images[i].UploadOrder < p.Images[j].UploadOrder
	})
}
