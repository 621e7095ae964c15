package main

import (
	"database/sql"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/backend-boka/internal/app"
)

// seeder provisions a demo tenant with one admin, one service, and one
// published booking form so a fresh environment is usable immediately.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	tenantSlug := envOr("SEED_TENANT_SLUG", "demo")
	adminEmail := envOr("SEED_ADMIN_EMAIL", "admin@demo.local")
	adminPassword := envOr("SEED_ADMIN_PASSWORD", "change-me-now")

	var tenantID string
	err = db.QueryRow(`
		INSERT INTO tenants (slug, name, currency, vat_rate_percent, tax_deduction_enabled)
		VALUES ($1, $2, 'SEK', 25, true)
		ON CONFLICT (slug) DO UPDATE SET updated_at = now()
		RETURNING id`,
		tenantSlug, titleCase(tenantSlug),
	).Scan(&tenantID)
	if err != nil {
		log.Fatalf("Failed to seed tenant: %v", err)
	}
	log.Printf("tenant %q ready (%s)", tenantSlug, tenantID)

	hash, err := app.HashPassword(adminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO admin_users (tenant_id, email, name, password_hash)
		VALUES ($1, $2, 'Demo Admin', $3)
		ON CONFLICT (tenant_id, email) DO NOTHING`,
		tenantID, adminEmail, hash,
	)
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	log.Printf("admin %q ready", adminEmail)

	serviceConfig := `{
		"model": "fixed_tier",
		"name": "Home cleaning",
		"taxDeductionEligible": true,
		"minimumChargeMajor": 500,
		"priceTiers": [
			{"min": 0, "max": 60, "price": 800},
			{"min": 61, "max": 120, "price": 1200},
			{"min": 121, "max": 250, "price": 1800}
		],
		"addons": [
			{"key": "oven", "displayName": "Oven cleaning", "kind": "fixed", "amountMajor": 150, "taxDeductionEligible": true},
			{"key": "windows", "displayName": "Interior windows", "kind": "per_unit", "amountMajor": 30}
		],
		"dynamicQuestions": [
			{"type": "checkbox", "key": "has_pets", "label": "Do you have pets?",
			 "impact": {"mode": "percent", "magnitude": 10, "direction": "increase"}}
		]
	}`

	var serviceID string
	err = db.QueryRow(`
		INSERT INTO services (tenant_id, slug, name, description, active, config)
		VALUES ($1, 'home-cleaning', 'Home cleaning', 'Recurring home cleaning', true, $2)
		ON CONFLICT (tenant_id, slug) DO UPDATE SET config = EXCLUDED.config, updated_at = now()
		RETURNING id`,
		tenantID, serviceConfig,
	).Scan(&serviceID)
	if err != nil {
		log.Fatalf("Failed to seed service: %v", err)
	}
	log.Printf("service home-cleaning ready (%s)", serviceID)

	_, err = db.Exec(`
		INSERT INTO forms (tenant_id, slug, name, service_id, published, settings)
		VALUES ($1, 'book-home-cleaning', 'Book home cleaning', $2, true,
			'{"introText": "Get an instant price for your home.", "showPriceBreakdown": true}')
		ON CONFLICT (tenant_id, slug) DO UPDATE SET service_id = EXCLUDED.service_id, updated_at = now()`,
		tenantID, serviceID,
	)
	if err != nil {
		log.Fatalf("Failed to seed form: %v", err)
	}
	log.Println("form book-home-cleaning ready")

	log.Println("Seeding complete.")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
