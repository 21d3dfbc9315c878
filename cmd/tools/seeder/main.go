// Seeder loads a starter catalog and till float into the database. Safe to run
// repeatedly: existing rows are left untouched.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type seedProduct struct {
	sku       string
	name      string
	unitPrice string
	taxRate   string
	stock     int
}

var seedProducts = []seedProduct{
	{"SKU1001", "Pen Blue", "10.00", "5.00", 100},
	{"SKU1002", "Notebook A4", "40.00", "12.00", 50},
	{"SKU1003", "Marker", "25.00", "18.00", 75},
	{"SKU1004", "Eraser", "5.00", "0.00", 200},
	{"SKU1005", "Pencil", "8.00", "0.00", 150},
}

var seedDenominations = []int64{2000, 500, 200, 100, 50, 20, 10, 5, 2, 1}

const seedDenominationCount = 50

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	for _, p := range seedProducts {
		tag, err := pool.Exec(ctx, `
			INSERT INTO products (sku, name, unit_price, tax_rate, available_stock)
			VALUES ($1, $2, $3::numeric, $4::numeric, $5)
			ON CONFLICT (sku) DO NOTHING
		`, p.sku, p.name, p.unitPrice, p.taxRate, p.stock)
		if err != nil {
			log.Fatalf("seed product %s: %v", p.sku, err)
		}
		if tag.RowsAffected() > 0 {
			log.Printf("seeded product %s (%s)", p.sku, p.name)
		}
	}

	for _, value := range seedDenominations {
		tag, err := pool.Exec(ctx, `
			INSERT INTO denominations (value, count)
			VALUES ($1, $2)
			ON CONFLICT (value) DO NOTHING
		`, value, seedDenominationCount)
		if err != nil {
			log.Fatalf("seed denomination %d: %v", value, err)
		}
		if tag.RowsAffected() > 0 {
			log.Printf("seeded denomination %d x%d", value, seedDenominationCount)
		}
	}

	log.Println("seed complete")
}
