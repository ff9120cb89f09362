package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lapak/internal/handlers"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
	"lapak/pkg/metrics"
	"lapak/pkg/storage"
)

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	viper.SetDefault("STORAGE_BASE_URL", "/storage")
	metrics.Init("lapak")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))

	disk := storage.NewDisk(afero.NewMemMapFs(), "/storage")
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	policy := services.PolicyFromName("owner")
	productService := services.NewProductService(productRepo, disk, policy, nil)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	app := buildApp(authService, handlers.NewAuthHandler(authService), handlers.NewProductHandler(productService), policy, disk)
	return &testApp{app: app, userRepo: userRepo, productRepo: productRepo}
}

type testApp struct {
	app         *fiber.App
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
}

func TestHealthCheck(t *testing.T) {
	env := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProductsRequireAuthentication(t *testing.T) {
	env := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestSeedProducts(t *testing.T) {
	env := newTestApp(t)

	seedProducts(env.userRepo, env.productRepo)

	// The seeder creates its own user when none exists and hangs all 20
	// placeholder products off it.
	user, err := env.userRepo.GetByUsername("seeder")
	assert.NoError(t, err)

	products, err := env.productRepo.GetByOwner(user.ID)
	assert.NoError(t, err)
	assert.Len(t, products, 20)
	for _, p := range products {
		assert.NotEmpty(t, p.Name)
		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.GreaterOrEqual(t, p.StockQuantity, 1)
		assert.Contains(t, p.ImageURL, "via.placeholder.com")
	}
}
