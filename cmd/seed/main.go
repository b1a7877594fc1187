// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/backend/internal/config"
	"storefront/backend/internal/db"
	"storefront/backend/internal/security"
	userdomain "storefront/backend/internal/user/domain"
	userrepo "storefront/backend/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("lookup dev user: %v", err)
	}
	if existing != nil {
		log.Printf("dev user %s already exists; nothing to do", devUserEmail)
		return
	}

	hash, err := security.NewHasher().Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash dev password: %v", err)
	}
	now := time.Now().UTC()
	devUser := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     devUserEmail,
		Name:      "Dev User",
		Roles:     []string{"user", "admin"},
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, devUser, hash); err != nil {
		log.Fatalf("create dev user: %v", err)
	}
	log.Printf("seeded dev user %s (password %q)", devUserEmail, devPassword)
}
