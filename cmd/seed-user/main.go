// seed-user creates a development user with a starter set of categories so
// the frontend has something to show on a fresh database.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-user
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/models"
	"gorm.io/gorm"
)

var starterCategories = []struct {
	name string
	icon string
	kind models.TransactionType
}{
	{"Groceries", "🛒", models.TransactionTypeExpense},
	{"Eating out", "🍔", models.TransactionTypeExpense},
	{"Transport", "⛽", models.TransactionTypeExpense},
	{"Subscriptions", "🎵", models.TransactionTypeExpense},
	{"Health", "💊", models.TransactionTypeExpense},
	{"Salary", "💰", models.TransactionTypeIncome},
}

func main() {
	email := flag.String("email", "dev@example.com", "Email for the seeded user.")
	password := flag.String("password", "devpassword", "Password for the seeded user.")
	name := flag.String("name", "Dev User", "Display name for the seeded user.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := models.MigrateAll(); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", *email).First(&existing).Error
	if err == nil {
		fmt.Printf("user %s already exists (id %s); leaving it as is\n", *email, existing.ID)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	user, err := models.RegisterUser(ctx, &models.NewUser{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	for _, cat := range starterCategories {
		_, err := models.CreateCategory(ctx, user.ID, &models.NewCategory{
			Name: cat.name,
			Icon: cat.icon,
			Type: cat.kind,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create category %s: %v\n", cat.name, err)
			os.Exit(1)
		}
	}

	if _, err := models.GetUserSettings(ctx, user.ID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create settings: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded user %s (id %s) with %d categories\n", *email, user.ID, len(starterCategories))
}
