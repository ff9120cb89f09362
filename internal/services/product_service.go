package services

import (
	"errors"
	"fmt"
	"io"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/logger"
	"lapak/pkg/rabbitmq"
	"lapak/pkg/storage"

	"go.uber.org/zap"
)

// imageDir is the storage namespace for product images.
const imageDir = "products"

// ImageUpload is a validated image file attached to a create or update
// request. Ext carries the original file extension including the dot.
type ImageUpload struct {
	Ext  string
	Data io.Reader
}

// CreateProductInput carries the validated fields for a new product.
type CreateProductInput struct {
	Name          string
	Description   string
	Price         float64
	StockQuantity int
	Image         *ImageUpload
}

// UpdateProductInput carries a partial update. Nil fields were not supplied
// and must keep their stored values.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	StockQuantity *int
	Image         *ImageUpload
}

// ProductService handles business logic related to products: authorization,
// image lifecycle and persistence.
type ProductService struct {
	repo     repositories.ProductRepository
	disk     *storage.Disk
	policy   AccessPolicy
	mqClient *rabbitmq.Client
	log      *zap.Logger
}

// NewProductService creates a new ProductService. mqClient may be nil, in
// which case no events are published.
func NewProductService(repo repositories.ProductRepository, disk *storage.Disk, policy AccessPolicy, mqClient *rabbitmq.Client) *ProductService {
	return &ProductService{
		repo:     repo,
		disk:     disk,
		policy:   policy,
		mqClient: mqClient,
		log:      logger.L(),
	}
}

// List retrieves all products owned by the principal.
func (s *ProductService) List(p models.Principal) ([]models.Product, error) {
	return s.repo.GetByOwner(p.ID)
}

// Get retrieves a single product, subject to the active access policy.
func (s *ProductService) Get(p models.Principal, id string) (*models.Product, error) {
	product, err := s.fetch(id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanRead(p, product) {
		return nil, ErrForbidden
	}
	return product, nil
}

// Create stores the product image (if any) and persists a new product owned
// by the principal. If persistence fails after the image was stored, the
// stored file is removed again so no orphan remains.
func (s *ProductService) Create(p models.Principal, in CreateProductInput) (*models.Product, error) {
	if !s.policy.CanCreate(p) {
		return nil, ErrForbidden
	}

	product := &models.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		OwnerID:       p.ID,
	}

	var storedPath string
	if in.Image != nil {
		path, err := s.disk.Store(imageDir, in.Image.Ext, in.Image.Data)
		if err != nil {
			s.log.Error("Image upload failed in create", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		storedPath = path
		product.ImageURL = s.disk.URL(path)
	}

	if err := s.repo.Create(product); err != nil {
		// Compensate for the non-transactional store-then-persist
		// sequence: remove the file that just became an orphan.
		if storedPath != "" {
			if delErr := s.disk.Delete(storedPath); delErr != nil {
				s.log.Warn("Failed to remove orphaned image after create failure",
					zap.String("path", storedPath), zap.Error(delErr))
			}
		}
		s.log.Error("Product creation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publish("product.created", product)
	return product, nil
}

// Update applies a partial update to a product. Only supplied fields
// overwrite stored values. A replacement image removes the previously stored
// file once the new URL is persisted; without one, image_url is carried
// forward untouched. If persistence fails after the replacement was stored,
// the new file is removed again so no orphan remains and the record keeps
// referencing its old, still-present file.
func (s *ProductService) Update(p models.Principal, id string, in UpdateProductInput) (*models.Product, error) {
	product, err := s.fetch(id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanMutate(p, product) {
		return nil, ErrForbidden
	}

	if in.Name == nil && in.Description == nil && in.Price == nil && in.StockQuantity == nil && in.Image == nil {
		return nil, ErrNoFields
	}

	changes := map[string]interface{}{}
	if in.Name != nil && *in.Name != product.Name {
		changes["name"] = *in.Name
	}
	if in.Description != nil && *in.Description != product.Description {
		changes["description"] = *in.Description
	}
	if in.Price != nil && *in.Price != product.Price {
		changes["price"] = *in.Price
	}
	if in.StockQuantity != nil && *in.StockQuantity != product.StockQuantity {
		changes["stock_quantity"] = *in.StockQuantity
	}

	var oldPath, newPath string
	if in.Image != nil {
		if product.ImageURL != "" {
			if path, ok := s.disk.PathFromURL(product.ImageURL); ok {
				oldPath = path
			}
		}
		path, err := s.disk.Store(imageDir, in.Image.Ext, in.Image.Data)
		if err != nil {
			s.log.Error("Image upload failed in update",
				zap.String("product_id", id), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		newPath = path
		changes["image_url"] = s.disk.URL(path)
	}

	if len(changes) == 0 {
		s.log.Warn("No changes applied during product update", zap.String("product_id", id))
		return product, ErrNoChanges
	}

	if err := s.repo.Update(id, changes); err != nil {
		// Compensate for the non-transactional store-then-persist
		// sequence: remove the replacement file that just became an
		// orphan. The record keeps pointing at the old, untouched file.
		if newPath != "" {
			if delErr := s.disk.Delete(newPath); delErr != nil {
				s.log.Warn("Failed to remove orphaned image after update failure",
					zap.String("path", newPath), zap.Error(delErr))
			}
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error("Product update failed", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// The replaced file is deleted only after the new URL is persisted.
	if oldPath != "" && s.disk.Exists(oldPath) {
		if err := s.disk.Delete(oldPath); err != nil {
			s.log.Warn("Failed to delete replaced image",
				zap.String("path", oldPath), zap.Error(err))
		}
	}

	fresh, err := s.fetch(id)
	if err != nil {
		return nil, err
	}
	s.publish("product.updated", fresh)
	return fresh, nil
}

// Delete removes a product and its stored image file. The file is deleted
// first; a persistence failure afterwards leaves the record without a file,
// an accepted inconsistency.
func (s *ProductService) Delete(p models.Principal, id string) error {
	product, err := s.fetch(id)
	if err != nil {
		return err
	}
	if !s.policy.CanMutate(p, product) {
		return ErrForbidden
	}

	if product.ImageURL != "" {
		if path, ok := s.disk.PathFromURL(product.ImageURL); ok && s.disk.Exists(path) {
			if err := s.disk.Delete(path); err != nil {
				s.log.Warn("Failed to delete product image",
					zap.String("product_id", id), zap.String("path", path), zap.Error(err))
			}
		}
	}

	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		s.log.Error("Product deletion failed", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.publish("product.deleted", product)
	return nil
}

func (s *ProductService) fetch(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// publish sends a product lifecycle event. Publishing is best-effort:
// failures are logged and never fail the request.
func (s *ProductService) publish(event string, product *models.Product) {
	if s.mqClient == nil {
		return
	}
	err := s.mqClient.PublishProductEvent(rabbitmq.ProductEvent{
		Event:     event,
		ProductID: product.ID,
		OwnerID:   product.OwnerID,
	})
	if err != nil {
		s.log.Warn("Failed to publish product event",
			zap.String("event", event), zap.String("product_id", product.ID), zap.Error(err))
	}
}
