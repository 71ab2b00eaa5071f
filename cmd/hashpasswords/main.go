package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/logger"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

type userStore interface {
	FindAll(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id string, patch *models.UserPatch) (*models.User, error)
}

// hashPasswords replaces every plaintext password with its bcrypt hash and
// returns how many users were rewritten.
func hashPasswords(ctx context.Context, store userStore, log *zap.Logger) (int, error) {
	users, err := store.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load users: %w", err)
	}

	updated := 0
	for _, user := range users {
		if user.PasswordHash == "" || auth.IsHashed(user.PasswordHash) {
			continue
		}
		hash, err := auth.HashPassword(user.PasswordHash)
		if err != nil {
			return updated, fmt.Errorf("failed to hash password for %s: %w", user.Email, err)
		}
		if _, err := store.Update(ctx, user.ID.Hex(), &models.UserPatch{PasswordHash: &hash}); err != nil {
			return updated, fmt.Errorf("failed to update %s: %w", user.Email, err)
		}
		log.Info("Password hashed", zap.String("email", user.Email))
		updated++
	}
	return updated, nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mongoRepo, err := repository.NewMongoRepository(ctx, &cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoRepo.Close(context.Background())

	n, err := hashPasswords(ctx, repository.NewUserRepository(mongoRepo.Users()), log)
	if err != nil {
		log.Fatal("Migration failed", zap.Int("updated", n), zap.Error(err))
	}
	log.Info("All passwords are hashed", zap.Int("updated", n))
}
