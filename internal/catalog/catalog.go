// Package catalog implements seller-scoped product CRUD. Reads are public;
// every mutation checks that the caller is the product's seller before the
// store is touched.
package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mac2503/e-tiet2/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the persistence contract for products. List methods return
// a possibly-empty slice; no matches is not an error.
type Repository interface {
	Insert(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetAllBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, u Update) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// BlobStore releases stored image objects. Satisfied by blob.Store.
type BlobStore interface {
	Delete(ctx context.Context, key string) error
}

// Fields are the product attributes accepted at creation time.
type Fields struct {
	Title       string
	Description string
	Image       string
	Categories  []string
	Size        string
	Color       string
	Price       float64
}

// Update is the allow-list of mutable attributes. Title and seller are
// fixed at creation. Nil pointers mean "leave unchanged"; the repository
// applies the whole set in a single write.
type Update struct {
	Description *string
	Image       *string
	Categories  []string
	Size        *string
	Color       *string
	Price       *float64
}

type Service struct {
	repo     Repository
	blobs    BlobStore
	errorLog *log.Logger
}

func NewService(repo Repository, blobs BlobStore, errorLog *log.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, errorLog: errorLog}
}

func (s *Service) Add(ctx context.Context, sellerID primitive.ObjectID, f Fields) (*models.Product, error) {
	if f.Title == "" || f.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", models.ErrValidation)
	}
	if f.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", models.ErrValidation)
	}

	product := &models.Product{
		Title:       f.Title,
		Description: f.Description,
		Image:       f.Image,
		Categories:  f.Categories,
		Size:        f.Size,
		Color:       f.Color,
		Price:       f.Price,
		Seller:      sellerID,
		CreatedAt:   time.Now(),
	}
	return s.repo.Insert(ctx, product)
}

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByIDSeller returns the product only to its own seller.
func (s *Service) GetByIDSeller(ctx context.Context, id, sellerID primitive.ObjectID) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Seller != sellerID {
		return nil, models.ErrNotAuthorised
	}
	return product, nil
}

func (s *Service) GetAll(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) GetAllBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Product, error) {
	return s.repo.GetAllBySeller(ctx, sellerID)
}

// Update applies the allow-listed fields after checking ownership.
func (s *Service) Update(ctx context.Context, id, sellerID primitive.ObjectID, u Update) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Seller != sellerID {
		return nil, models.ErrNotAuthorised
	}
	if u.Price != nil && *u.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", models.ErrValidation)
	}
	return s.repo.Update(ctx, id, u)
}

// UpdateImage swaps the product image key and releases the previous blob.
func (s *Service) UpdateImage(ctx context.Context, id, sellerID primitive.ObjectID, key string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Seller != sellerID {
		return nil, models.ErrNotAuthorised
	}

	updated, err := s.repo.Update(ctx, id, Update{Image: &key})
	if err != nil {
		return nil, err
	}
	s.releaseBlob(ctx, product.Image)
	return updated, nil
}

// Delete removes the product and releases its image blob. A failed blob
// release is logged but does not undo the record delete.
func (s *Service) Delete(ctx context.Context, id, sellerID primitive.ObjectID) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.Seller != sellerID {
		return models.ErrNotAuthorised
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.releaseBlob(ctx, product.Image)
	return nil
}

func (s *Service) releaseBlob(ctx context.Context, key string) {
	if key == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.errorLog.Printf("releasing image blob %s: %v", key, err)
	}
}
