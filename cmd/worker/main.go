package main

import (
	"context"
	"log"
	"time"

	"github.com/FindNest-Estate/NestFind-sub001/internal/config"
	"github.com/FindNest-Estate/NestFind-sub001/internal/db"
	"github.com/FindNest-Estate/NestFind-sub001/internal/store"
	"github.com/FindNest-Estate/NestFind-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	w := &worker.Worker{
		Store:    store.New(pool),
		Interval: time.Duration(cfg.Worker.IntervalSeconds) * time.Second,
	}

	log.Printf("maintenance worker started (interval=%s)", w.Interval)
	w.Run(ctx)
}
