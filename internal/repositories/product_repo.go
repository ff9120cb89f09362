package repositories

import (
	"errors"

	"lapak/internal/models"
)

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("record not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetByOwner(ownerID string) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	// Update applies only the given column changes to the record, leaving
	// every other column untouched.
	Update(id string, changes map[string]interface{}) error
	Delete(id string) error
}
