package main

import (
	"context"
	"fmt"

	"visaletter-backend/config"
	"visaletter-backend/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer pool.Close()

	// Metadata only: no applicant field is ever stored
	schemaSQL := `
CREATE TABLE IF NOT EXISTS generation_logs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    request_id VARCHAR(128) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL CHECK (status IN ('completed', 'rejected', 'failed')),
    model VARCHAR(100),
    fallback_used BOOLEAN NOT NULL DEFAULT false,
    scenarios JSONB NOT NULL DEFAULT '[]'::jsonb,
    asset_fingerprint VARCHAR(64),
    error_code VARCHAR(50),
    prompt_chars INTEGER NOT NULL DEFAULT 0,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatal("Failed to create table", "error", err)
	}
	log.Info("Created table generation_logs")

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Recent logs by status",
			sql:  "CREATE INDEX IF NOT EXISTS idx_generation_logs_status_created ON generation_logs(status, created_at DESC);",
		},
		{
			name: "Request lookup",
			sql:  "CREATE INDEX IF NOT EXISTS idx_generation_logs_request_id ON generation_logs(request_id);",
		},
		{
			name: "Scenario filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_generation_logs_scenarios ON generation_logs USING gin (scenarios);",
		},
	}

	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Warn("Failed to create index", "index", idx.name, "error", err)
		} else {
			log.Info("Created index", "index", idx.name)
		}
	}

	fmt.Println("\nDatabase schema created successfully!")
	fmt.Println("   Table: generation_logs")
	fmt.Printf("   Indexes: %d\n", len(indexes))
}
