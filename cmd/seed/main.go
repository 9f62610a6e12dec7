package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-cms/internal/config"
	"portfolio-cms/internal/logging"
	"portfolio-cms/internal/repository"
	"portfolio-cms/internal/services"
	"portfolio-cms/pkg/models"
)

// Seeds the schema and a demo testimonial chain. Safe to re-run: chain
// creation carries an idempotency key.
func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	// Apply schema
	if _, err := pool.Exec(ctx, repository.Schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("Schema applied")

	store := repository.NewPostgresWorkflowStore(pool)
	workflows := services.NewWorkflowService(store, nil, logger, nil)

	states, err := workflows.Initiate(ctx, services.InitiateParams{
		Kind:           models.KindTestimonial,
		ContentID:      "demo-testimonial-1",
		ContentType:    models.ContentTypeTestimonial,
		AssignedTo:     "dev@localhost",
		Description:    "Demo testimonial collection chain",
		IdempotencyKey: "seed-demo-testimonial",
	})
	if err != nil {
		log.Fatalf("Failed to seed demo chain: %v", err)
	}

	logger.Info("Demo chain ready", "chain_id", states[0].ChainID, "steps", len(states))
}
