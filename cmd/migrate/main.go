package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"

	"nextstep-polls/internal/config"
	"nextstep-polls/internal/container"
	"nextstep-polls/pkg/database"
	"nextstep-polls/pkg/logger"
)

const usage = "Usage: go run ./cmd/migrate [up|drop|seed|reset]"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	// config.Load reads .env when present
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "up":
		conn := connect(ctx, cfg)
		defer conn.Close(ctx)
		if _, err := conn.Exec(ctx, database.Schema); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ kv_store table created successfully")

	case "drop":
		conn := connect(ctx, cfg)
		defer conn.Close(ctx)
		if _, err := conn.Exec(ctx, `DROP TABLE IF EXISTS kv_store`); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ kv_store table dropped successfully")

	case "seed":
		c := openContainer(ctx, cfg)
		defer c.Close()
		seeded, err := c.Polls.SeedIfEmpty(ctx)
		if err != nil {
			log.Fatalf("Failed to seed polls: %v", err)
		}
		if seeded {
			fmt.Printf("✅ Demo polls seeded into %s store\n", cfg.StoreBackend)
		} else {
			fmt.Printf("Store %s already holds polls, nothing to seed\n", cfg.StoreBackend)
		}

	case "reset":
		c := openContainer(ctx, cfg)
		defer c.Close()
		if err := c.Polls.Reset(ctx); err != nil {
			log.Fatalf("Failed to reset store: %v", err)
		}
		fmt.Printf("✅ Polls and ballots cleared from %s store\n", cfg.StoreBackend)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

// connect opens a single connection for schema changes
func connect(ctx context.Context, cfg *config.Config) *pgx.Conn {
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return conn
}

// openContainer connects whichever backend STORE_BACKEND names
func openContainer(ctx context.Context, cfg *config.Config) *container.Container {
	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	c, err := container.New(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	return c
}
