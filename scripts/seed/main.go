package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/logistock/logistock/internal/inventory"
)

func main() {
	file := flag.String("file", getenv("LOGISTOCK_FILE", inventory.DefaultFile), "inventory CSV to write")
	token := flag.String("token", "", "print the APP_TOKEN_HASH for this bearer token")
	flag.Parse()

	ctx := context.Background()

	fmt.Println("→ Seeding products...")
	ledger, err := seedProducts()
	if err != nil {
		log.Fatalf("seed products: %v", err)
	}
	if err := inventory.NewFileStore(*file, nil).Save(ctx, ledger); err != nil {
		log.Fatalf("write %s: %v", *file, err)
	}

	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		fmt.Println("→ Mirroring to PostgreSQL...")
		if err := seedPostgres(ctx, dsn, ledger); err != nil {
			log.Fatalf("seed postgres: %v", err)
		}
	}

	if *token != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*token), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash token: %v", err)
		}
		fmt.Printf("APP_TOKEN_HASH=%s\n", hash)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedProducts() (*inventory.Ledger, error) {
	products := []struct {
		id       int64
		name     string
		price    string
		base     string
		qty      int
		category string
		entry    string
	}{
		{1, "Cordless Drill", "89.90", "99.90", 14, "Tools", "2024-01-08"},
		{2, "Hex Key Set", "12.50", "", 60, "Tools", "2024-01-08"},
		{3, "Safety Goggles", "7.20", "8.00", 120, "Safety", "2024-01-15"},
		{4, "Work Gloves", "5.75", "", 0, "Safety", "2024-02-02"},
		{5, "Pallet Jack", "349.00", "", 3, "Warehouse", "2024-02-20"},
		{6, "Stretch Film Roll", "18.40", "", 45, "Packaging", "2024-03-01"},
		{7, "Label Printer", "129.00", "149.00", 6, "Office", "2024-03-11"},
	}

	ledger := inventory.NewLedger()
	for _, p := range products {
		entry, err := inventory.ParseDate(p.entry)
		if err != nil {
			return nil, err
		}
		params := inventory.ProductParams{
			ID:        p.id,
			Name:      p.name,
			Price:     decimal.RequireFromString(p.price),
			Quantity:  p.qty,
			Category:  p.category,
			EntryDate: entry,
		}
		if p.base != "" {
			params.BasePrice = decimal.RequireFromString(p.base)
		}
		product, err := inventory.NewProduct(params)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", p.id, err)
		}
		if err := ledger.Add(product); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

func seedPostgres(ctx context.Context, dsn string, ledger *inventory.Ledger) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := inventory.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.Save(ctx, ledger)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
