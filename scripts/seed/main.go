// Seed creates a demo user and a batch of items. Run from project root:
// go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"taskmail/internal/config"
	"taskmail/internal/database"
	"taskmail/internal/models"
	"taskmail/internal/repository"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Get()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB connection failed:", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	users := repository.NewUsers(db)
	items := repository.NewItems(db)

	const email = "demo@taskmail.local"
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Lookup failed:", err)
		os.Exit(1)
	}
	if user == nil {
		hash, _ := bcrypt.GenerateFromPassword([]byte("demo-password"), cfg.BcryptCost)
		user, err = users.Create(ctx, "Demo User", email, string(hash))
		if err != nil {
			fmt.Fprintln(os.Stderr, "User create failed:", err)
			os.Exit(1)
		}
		fmt.Println("Created demo user:", email)
	}

	const total = 50
	for n := 1; n <= total; n++ {
		it := &models.Item{
			Title:       fmt.Sprintf("Task %d", n),
			Description: fmt.Sprintf("Seeded task number %d", n),
			Completed:   n%3 == 0,
			Starred:     n%7 == 0,
			Folder:      models.FolderInbox,
			OwnerID:     user.ID,
		}
		if err := items.Insert(ctx, it); err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Done: %d items for %s\n", total, email)
}
