package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mac2503/e-tiet2/internal/catalog"
	"github.com/mac2503/e-tiet2/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository struct {
	Collection *mongo.Collection
}

func (r *ProductRepository) Insert(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Title == "" || product.Description == "" || product.Price <= 0 || product.Seller.IsZero() {
		return nil, fmt.Errorf("%w: title, description, price and seller are required", models.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.Collection.InsertOne(ctx, product)
	if err != nil {
		return nil, err
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return product, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var product models.Product
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoRecord
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *ProductRepository) GetAllBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Product, error) {
	return r.find(ctx, bson.M{"seller": sellerID})
}

// Update applies the allow-listed fields in a single $set. Title and seller
// are never part of the update document.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, u catalog.Update) (*models.Product, error) {
	set := bson.M{}
	if u.Description != nil {
		set["desc"] = *u.Description
	}
	if u.Image != nil {
		set["img"] = *u.Image
	}
	if u.Categories != nil {
		set["categories"] = u.Categories
	}
	if u.Size != nil {
		set["size"] = *u.Size
	}
	if u.Color != nil {
		set["color"] = *u.Color
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoRecord
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNoRecord
	}
	return nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cur, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
