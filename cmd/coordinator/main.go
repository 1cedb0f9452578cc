package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deborgen/deborgen/internal/config"
	"github.com/deborgen/deborgen/internal/database"
	"github.com/deborgen/deborgen/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%s - failed to load config: %v", time.Now().UTC().Format(time.RFC3339), err)
	}

	db, err := database.InitDB(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("%s - failed to initialize database: %v", time.Now().UTC().Format(time.RFC3339), err)
	}
	defer func() {
		if err := database.CloseDB(db); err != nil {
			log.Printf("%s - warning: failed to close database: %v", time.Now().UTC().Format(time.RFC3339), err)
		}
	}()

	srv := server.New(cfg, db)
	srv.RegisterRoutes()

	log.Printf("%s - starting coordinator on :%s (db=%s)", time.Now().UTC().Format(time.RFC3339), cfg.Port, cfg.DBPath)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(sigCtx); err != nil {
		log.Printf("%s - coordinator stopped: %v", time.Now().UTC().Format(time.RFC3339), err)
		os.Exit(1)
	}
}
