package main

import (
	"errors"
	"fmt"
	"math/rand"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const seedLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// seedProducts populates the database with a development dataset: 20
// placeholder products owned by the first existing user, or by a freshly
// created seeder account when the user table is empty.
func seedProducts(userRepo repositories.UserRepository, productRepo repositories.ProductRepository) {
	log := logger.L()

	user, err := userRepo.GetFirst()
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Error("Failed to look up seed user", zap.Error(err))
			return
		}
		user, err = createSeedUser(userRepo)
		if err != nil {
			log.Error("Failed to create seed user", zap.Error(err))
			return
		}
	}

	for i := 1; i <= 20; i++ {
		product := models.Product{
			Name:          fmt.Sprintf("Product %d", i),
			Description:   randomString(50),
			Price:         float64(rand.Intn(491)+10) + float64(rand.Intn(100))/100,
			ImageURL:      fmt.Sprintf("https://via.placeholder.com/150?text=Product+%d", i),
			StockQuantity: rand.Intn(100) + 1,
			OwnerID:       user.ID,
		}
		if err := productRepo.Create(&product); err != nil {
			log.Error("Failed to seed product", zap.String("name", product.Name), zap.Error(err))
		}
	}
	log.Info("Seeded placeholder products", zap.String("owner_id", user.ID))
}

func createSeedUser(userRepo repositories.UserRepository) (*models.User, error) {
	// Random password: the seeder account is never meant to log in.
	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: "seeder",
		Email:    "seeder@example.com",
		Password: string(hashed),
	}
	if err := userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = seedLetters[rand.Intn(len(seedLetters))]
	}
	return string(b)
}
