// Package repository contains the MongoDB implementations of the service
// repository interfaces. Store errors are translated to the models
// sentinels at this boundary; mongo never leaks upward.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mac2503/e-tiet2/internal/identity"
	"github.com/mac2503/e-tiet2/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const queryTimeout = 5 * time.Second

type UserRepository struct {
	Collection *mongo.Collection
}

func (r *UserRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	count, err := r.Collection.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, models.ErrDuplicateEmail
	}

	res, err := r.Collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_token.hash":     hash,
		"reset_token.validity": bson.M{"$gt": now},
	})
}

func (r *UserRepository) UpdateDetails(ctx context.Context, id primitive.ObjectID, d identity.Details) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"name":   d.Name,
		"phone":  d.Phone,
		"rollno": d.RollNo,
		"email":  d.Email,
		"hostel": d.Hostel,
	}})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password_hash": passwordHash}})
}

func (r *UserRepository) SetVerified(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"verified": true},
		"$unset": bson.M{"otp": ""},
	})
}

func (r *UserRepository) SetOtp(ctx context.Context, id primitive.ObjectID, otp models.Otp) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"otp": otp}})
}

func (r *UserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, token models.ResetToken) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"reset_token": token}})
}

func (r *UserRepository) ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"password_hash": passwordHash},
		"$unset": bson.M{"reset_token": ""},
	})
}

func (r *UserRepository) SetPicture(ctx context.Context, id primitive.ObjectID, key string) error {
	if key == "" {
		return r.updateOne(ctx, id, bson.M{"$unset": bson.M{"picture": ""}})
	}
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"picture": key}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := r.Collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNoRecord
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNoRecord
	}
	return nil
}
