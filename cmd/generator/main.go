package main

import (
	"crypto/sha256"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"homestay/internal/config"
	"homestay/internal/database"
)

var (
	userCount    = flag.Int("users", 20, "Number of guest/host users to generate")
	listingCount = flag.Int("listings", 50, "Number of listings to generate")
	clearFirst   = flag.Bool("clear", false, "Clear existing listings before generating new ones")
	dryRun       = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

// Seed tool for local development and load testing. Populates users and
// listings so the booking flows have something to book.
type SeedGenerator struct {
	db *database.DB
}

func main() {
	flag.Parse()

	slog.Info("Starting seed generator...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	generator := &SeedGenerator{db: db}

	if err := generator.Generate(); err != nil {
		slog.Error("Failed to generate seed data", "error", err)
		os.Exit(1)
	}

	slog.Info("Seed generation completed successfully!")
}

func (g *SeedGenerator) Generate() error {
	if *dryRun {
		slog.Info("[DRY RUN] Would generate seed data",
			"users", *userCount, "listings", *listingCount)
		return nil
	}

	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if *clearFirst {
		// Брони ссылаются на листинги, чистим в правильном порядке
		if _, err := tx.Exec("DELETE FROM bookings"); err != nil {
			return fmt.Errorf("failed to clear bookings: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM listings"); err != nil {
			return fmt.Errorf("failed to clear listings: %w", err)
		}
	}

	userIDs, err := g.insertUsers(tx)
	if err != nil {
		return fmt.Errorf("failed to insert users: %w", err)
	}

	if err := g.insertListings(tx, userIDs); err != nil {
		return fmt.Errorf("failed to insert listings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Generated seed data", "users", len(userIDs), "listings", *listingCount)
	return nil
}

func (g *SeedGenerator) insertUsers(tx *sql.Tx) ([]int64, error) {
	stmt := `
		INSERT INTO users (email, password_hash, first_name, surname)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING user_id`

	firstNames := []string{"Alice", "Bob", "Carol", "Dmitry", "Elena", "Farid", "Grace", "Hiro"}
	surnames := []string{"Smith", "Ivanov", "Tanaka", "Muller", "Garcia", "Chen", "Okafor", "Novak"}

	ids := make([]int64, 0, *userCount)
	for i := 0; i < *userCount; i++ {
		email := fmt.Sprintf("user%03d@example.com", i+1)
		// Все сидированные пользователи получают пароль "password"
		hash := sha256.Sum256([]byte("password"))

		var id int64
		err := tx.QueryRow(stmt,
			email,
			fmt.Sprintf("%x", hash),
			firstNames[rand.Intn(len(firstNames))],
			surnames[rand.Intn(len(surnames))],
		).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (g *SeedGenerator) insertListings(tx *sql.Tx, hostIDs []int64) error {
	stmt := `
		INSERT INTO listings (host_id, title, nightly_price, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)`

	kinds := []string{"Cabin", "Loft", "Cottage", "Villa", "Studio", "Bungalow"}
	places := []string{"by the lake", "in the old town", "near the beach", "in the hills", "downtown"}

	now := time.Now()
	for i := 0; i < *listingCount; i++ {
		title := fmt.Sprintf("%s %s #%d", kinds[rand.Intn(len(kinds))], places[rand.Intn(len(places))], i+1)
		host := hostIDs[rand.Intn(len(hostIDs))]

		if _, err := tx.Exec(stmt, host, title, generateNightlyPrice(), now); err != nil {
			return err
		}
	}

	return nil
}

// generateNightlyPrice returns a price in minor units, skewed so most
// listings land in the mid range.
func generateNightlyPrice() int64 {
	base := int64(3000)

	switch rand.Intn(10) {
	case 0, 1:
		return base + int64(rand.Intn(2000))
	case 9:
		return base + int64(rand.Intn(40000)+15000)
	default:
		return base + int64(rand.Intn(12000)+2000)
	}
}
