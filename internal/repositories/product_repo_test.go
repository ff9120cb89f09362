package repositories_test

import (
	"testing"

	"lapak/internal/models"
	"lapak/internal/repositories"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Both implementations must behave identically so the in-memory repository
// can stand in for the GORM one wherever no database is available.
func TestProductRepositoryContract(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Product{}))

	repos := map[string]repositories.ProductRepository{
		"gorm":      repositories.NewGORMProductRepository(db),
		"in-memory": repositories.NewMockProductRepository(),
	}

	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			owner := name + "-owner"

			product := &models.Product{Name: "Widget", Price: 9.99, StockQuantity: 5, OwnerID: owner}
			assert.NoError(t, repo.Create(product))
			assert.NotEmpty(t, product.ID, "create assigns an ID")

			got, err := repo.GetByID(product.ID)
			assert.NoError(t, err)
			assert.Equal(t, "Widget", got.Name)

			_, err = repo.GetByID("missing")
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			products, err := repo.GetByOwner(owner)
			assert.NoError(t, err)
			assert.Len(t, products, 1)

			// Unknown owners get an empty slice, never nil.
			products, err = repo.GetByOwner(owner + "-nobody")
			assert.NoError(t, err)
			assert.NotNil(t, products)
			assert.Empty(t, products)

			// Update writes only the given columns.
			assert.NoError(t, repo.Update(product.ID, map[string]interface{}{"price": 12.50}))
			got, err = repo.GetByID(product.ID)
			assert.NoError(t, err)
			assert.Equal(t, 12.50, got.Price)
			assert.Equal(t, "Widget", got.Name)
			assert.Equal(t, 5, got.StockQuantity)

			assert.ErrorIs(t, repo.Update("missing", map[string]interface{}{"price": 1.0}), repositories.ErrNotFound)

			assert.NoError(t, repo.Delete(product.ID))
			_, err = repo.GetByID(product.ID)
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			assert.ErrorIs(t, repo.Delete(product.ID), repositories.ErrNotFound)
		})
	}
}
